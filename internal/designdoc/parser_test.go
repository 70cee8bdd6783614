package designdoc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePRD = `# Checkout Flow PRD

This is a Product Requirements Document for the checkout flow.

## Goals

- The system MUST support guest checkout.
- The system SHOULD remember the last used shipping address.

## Non-Goals

1. The system must not store raw card numbers.
`

func TestCanParse_MatchesFilenamePattern(t *testing.T) {
	require.True(t, CanParse("docs/prd-checkout.md"))
	require.True(t, CanParse("docs/PRD.md"))
	require.False(t, CanParse("docs/prd-checkout.txt"))
	require.False(t, CanParse("docs/README.md"))
}

func TestParse_DetectsKindAndTitle(t *testing.T) {
	result := Parse("docs/prd-checkout.md", samplePRD)
	require.NotEmpty(t, result.Entities)

	doc := result.Entities[0]
	require.Equal(t, EntityKindDocument, doc.Kind)
	require.Equal(t, "PRD: Checkout Flow PRD", doc.Name)
	require.Equal(t, "prd", doc.Metadata["type"])
}

func TestParse_ExtractsSectionsAndRequirements(t *testing.T) {
	result := Parse("docs/prd-checkout.md", samplePRD)

	var sectionNames []string
	var reqEntities []Entity
	for _, e := range result.Entities {
		switch e.Kind {
		case EntityKindSection:
			sectionNames = append(sectionNames, e.Name)
		case EntityKindRequirement:
			reqEntities = append(reqEntities, e)
		}
	}
	require.Contains(t, sectionNames, "Section: Goals")
	require.Contains(t, sectionNames, "Section: Non-Goals")
	require.Len(t, reqEntities, 3)
	require.Equal(t, "mandatory", reqEntities[0].Metadata["requirement_type"])
}

func TestParse_EmitsContainsRelationsAndChunks(t *testing.T) {
	result := Parse("docs/prd-checkout.md", samplePRD)
	require.NotEmpty(t, result.Relations)
	for _, rel := range result.Relations {
		require.Equal(t, "contains", rel.Type)
	}
	require.NotEmpty(t, result.Chunks)
}

func TestParse_UnrecognizedDocumentYieldsNoEntities(t *testing.T) {
	result := Parse("docs/readme.md", "# Just a readme\n\nNothing special here.\n")
	require.Empty(t, result.Entities)
}

func TestChunkID_DeterministicAndRederivable(t *testing.T) {
	a := chunkID("docs/prd.md", "Section: Goals", "implementation")
	b := chunkID("docs/prd.md", "Section: Goals", "implementation")
	require.Equal(t, a, b)

	c := chunkID("docs/prd.md", "Section: Non-Goals", "implementation")
	require.NotEqual(t, a, c)
}
