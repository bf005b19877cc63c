package discovery

import (
	"context"
	"fmt"

	"scholarmap-backend/application/ports"
	"scholarmap-backend/domain"
)

// StaticDiscoverer serves a deterministic four-node graph derived from
// the topic. It stands in for the model provider in development and in
// tests, and its shape matches what the DeepSeek prompt asks for: the
// topic root, two expanding subtopics and one author.
type StaticDiscoverer struct{}

// NewStaticDiscoverer creates a static discoverer
func NewStaticDiscoverer() ports.Discoverer {
	return &StaticDiscoverer{}
}

func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

// Discover returns the canned graph for the topic
func (d *StaticDiscoverer) Discover(ctx context.Context, topic string, params map[string]interface{}) ([]domain.NodeItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return []domain.NodeItem{
		{
			Label: topic,
			Type:  domain.NodeTypeTopic,
			Score: floatPtr(1.0),
			Sources: []domain.SourceItem{
				{
					Kind:    "article",
					Title:   fmt.Sprintf("An overview of %s", topic),
					Authors: []string{"J. Rivera"},
					Year:    2021,
					URL:     "https://example.org/overview",
					Snippet: fmt.Sprintf("A survey of current research on %s.", topic),
					Rank:    0,
				},
			},
		},
		{
			Label:       fmt.Sprintf("Foundations of %s", topic),
			Type:        domain.NodeTypeSubtopic,
			ParentIndex: intPtr(0),
			Score:       floatPtr(0.9),
			Sources: []domain.SourceItem{
				{
					Kind:    "book",
					Title:   fmt.Sprintf("Foundations of %s", topic),
					Authors: []string{"M. Chen", "A. Okafor"},
					Year:    2018,
					URL:     "https://example.org/foundations",
					Rank:    0,
				},
				{
					Kind:    "paper",
					Title:   fmt.Sprintf("Early work on %s", topic),
					Authors: []string{"S. Novak"},
					Year:    2009,
					DOI:     "10.1000/example.1",
					Rank:    1,
				},
			},
		},
		{
			Label:       fmt.Sprintf("Applications of %s", topic),
			Type:        domain.NodeTypeSubtopic,
			ParentIndex: intPtr(0),
			Score:       floatPtr(0.8),
			Sources: []domain.SourceItem{
				{
					Kind:    "paper",
					Title:   fmt.Sprintf("Applying %s in practice", topic),
					Authors: []string{"L. Haddad"},
					Year:    2022,
					DOI:     "10.1000/example.2",
					Rank:    0,
				},
			},
		},
		{
			Label:       "R. Ellison",
			Type:        domain.NodeTypeAuthor,
			ParentIndex: intPtr(0),
			Score:       floatPtr(0.7),
			Sources: []domain.SourceItem{
				{
					Kind:    "paper",
					Title:   fmt.Sprintf("Collected works on %s", topic),
					Authors: []string{"R. Ellison"},
					Year:    2015,
					URL:     "https://example.org/ellison",
					Rank:    0,
				},
			},
		},
	}, nil
}
