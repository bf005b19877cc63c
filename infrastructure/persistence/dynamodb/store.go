// Package dynamodb implements the repository ports against a single
// DynamoDB table with one global secondary index (GSI1) for id, org and
// star lookups.
package dynamodb

import (
	"errors"
	"fmt"
	"time"

	pkgerrors "scholarmap-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Entity type discriminators stored on every item
const (
	entityWorkspace  = "WORKSPACE"
	entityMembership = "MEMBERSHIP"
	entityQuery      = "QUERY"
	entityNode       = "NODE"
	entityEdge       = "EDGE"
	entitySource     = "SOURCE"
	entityNote       = "NOTE"
	entityStar       = "STAR"
	entityAudit      = "AUDIT"
	entityOrgGuard   = "ORG_GUARD"
)

// timeLayout is a fixed-width RFC3339 variant so timestamps embedded in
// sort keys order lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// formatTime renders t for storage and sort keys
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored timestamp
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// Key builders. The single-table layout:
//
//	Workspace:  PK=WORKSPACE#id  SK=METADATA        GSI1PK=ORG#orgID          GSI1SK=WORKSPACE
//	Membership: PK=WORKSPACE#id  SK=MEMBER#userID
//	Query:      PK=WORKSPACE#id  SK=QUERY#start#id  GSI1PK=QUERY#id           GSI1SK=METADATA
//	Node:       PK=QUERY#id      SK=NODE#id         GSI1PK=NODE#id            GSI1SK=METADATA
//	Edge:       PK=QUERY#id      SK=EDGE#id
//	Source:     PK=NODE#id       SK=SOURCE#rank#id
//	Note:       PK=NODE#id       SK=NOTE#created#id
//	Star:       PK=NODE#id       SK=STAR#userID     GSI1PK=STARS#wsID#userID  GSI1SK=NODE#id
//	Audit:      PK=WORKSPACE#id  SK=AUDIT#ts#id
//	Org guard:  PK=ORG#orgID     SK=WORKSPACE
func workspacePK(workspaceID string) string { return "WORKSPACE#" + workspaceID }
func queryPK(queryID string) string         { return "QUERY#" + queryID }
func nodePK(nodeID string) string           { return "NODE#" + nodeID }
func orgPK(orgID string) string             { return "ORG#" + orgID }

func memberSK(userID string) string { return "MEMBER#" + userID }
func starSK(userID string) string   { return "STAR#" + userID }

func querySK(startedAt time.Time, queryID string) string {
	return fmt.Sprintf("QUERY#%s#%s", formatTime(startedAt), queryID)
}

func nodeSK(nodeID string) string { return "NODE#" + nodeID }
func edgeSK(edgeID string) string { return "EDGE#" + edgeID }

func sourceSK(rank int, sourceID string) string {
	return fmt.Sprintf("SOURCE#%05d#%s", rank, sourceID)
}

func noteSK(createdAt time.Time, noteID string) string {
	return fmt.Sprintf("NOTE#%s#%s", formatTime(createdAt), noteID)
}

func auditSK(ts time.Time, auditID string) string {
	return fmt.Sprintf("AUDIT#%s#%s", formatTime(ts), auditID)
}

func starsGSI1PK(workspaceID, userID string) string {
	return fmt.Sprintf("STARS#%s#%s", workspaceID, userID)
}

// isConditionalCheckFailed reports whether err is a failed conditional
// write, including one inside a cancelled transaction.
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}

// dbError wraps a low-level store failure
func dbError(operation string, err error) error {
	return pkgerrors.NewDatabaseError(operation, err)
}
