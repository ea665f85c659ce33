package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

// DefaultConfidenceFloor excludes weak candidates from the schema graph.
const DefaultConfidenceFloor = 0.50

// minHubDegree is how many distinct datasets a table must reference to count
// as a hub (fact table).
const minHubDegree = 2

// ClassifierPolicy holds the tunable parts of schema classification. The hub
// tie-break (most total matching values, then name order) is a heuristic, not
// a proven rule; exposing it as policy keeps that explicit.
type ClassifierPolicy struct {
	// ConfidenceFloor excludes relationships below this confidence from the
	// graph.
	ConfidenceFloor float64
}

// DefaultClassifierPolicy returns the standard policy.
func DefaultClassifierPolicy() ClassifierPolicy {
	return ClassifierPolicy{ConfidenceFloor: DefaultConfidenceFloor}
}

// SchemaClassifier labels the dataset-relationship graph as a star,
// snowflake, flat, or unconnected topology and assigns fact/dimension roles.
type SchemaClassifier interface {
	// ClassifySchema is pure and idempotent: the same inputs always produce
	// a deeply equal result. The input relationship slice is never mutated;
	// annotated copies are returned inside the result.
	ClassifySchema(ctx context.Context, datasets []*models.Dataset, relationships []models.Relationship) *models.SchemaDetectionResult
}

type schemaClassifier struct {
	policy ClassifierPolicy
	logger *zap.Logger
}

var _ SchemaClassifier = (*schemaClassifier)(nil)

// NewSchemaClassifier creates a classifier with the given policy.
func NewSchemaClassifier(policy ClassifierPolicy, logger *zap.Logger) SchemaClassifier {
	if policy.ConfidenceFloor <= 0 {
		policy.ConfidenceFloor = DefaultConfidenceFloor
	}
	return &schemaClassifier{policy: policy, logger: logger.Named("schema_classifier")}
}

func (c *schemaClassifier) ClassifySchema(ctx context.Context, datasets []*models.Dataset, relationships []models.Relationship) *models.SchemaDetectionResult {
	names := make(map[uuid.UUID]string, len(datasets))
	for _, ds := range datasets {
		names[ds.ID] = ds.Name
	}

	var edges []models.Relationship
	for _, rel := range relationships {
		if rel.Confidence >= c.policy.ConfidenceFloor {
			edges = append(edges, rel)
		}
	}

	if len(datasets) < 2 || len(edges) == 0 {
		return &models.SchemaDetectionResult{
			SchemaType:      models.SchemaTypeNone,
			FactTables:      []models.TableRole{},
			DimensionTables: []models.TableRole{},
			Relationships:   []models.Relationship{},
			Explanation:     noneExplanation(len(datasets)),
		}
	}

	// Out-edges per dataset, deduplicated by target: a fact referencing the
	// same dimension through two column pairs still has degree one there.
	outTargets := make(map[uuid.UUID]map[uuid.UUID]struct{})
	matchingRows := make(map[uuid.UUID]int)
	for _, e := range edges {
		if outTargets[e.FromDataset] == nil {
			outTargets[e.FromDataset] = make(map[uuid.UUID]struct{})
		}
		outTargets[e.FromDataset][e.ToDataset] = struct{}{}
		matchingRows[e.FromDataset] += e.MatchingValues
		matchingRows[e.ToDataset] += e.MatchingValues
	}

	var hubs []uuid.UUID
	for id, targets := range outTargets {
		if len(targets) >= minHubDegree {
			hubs = append(hubs, id)
		}
	}

	if len(hubs) == 0 {
		return c.classifyFlat(edges)
	}

	hub := c.pickHub(hubs, matchingRows, names)
	return c.classifyAroundHub(hub, edges, names, matchingRows)
}

// pickHub selects the dominant hub when several datasets qualify: greatest
// total matching rows wins, name order breaks exact ties for determinism.
func (c *schemaClassifier) pickHub(hubs []uuid.UUID, matchingRows map[uuid.UUID]int, names map[uuid.UUID]string) uuid.UUID {
	sort.Slice(hubs, func(i, j int) bool {
		if matchingRows[hubs[i]] != matchingRows[hubs[j]] {
			return matchingRows[hubs[i]] > matchingRows[hubs[j]]
		}
		return names[hubs[i]] < names[hubs[j]]
	})
	if len(hubs) > 1 {
		c.logger.Debug("multiple hub candidates, tie-breaking by matching rows",
			zap.Int("candidates", len(hubs)),
			zap.String("chosen", names[hubs[0]]))
	}
	return hubs[0]
}

func (c *schemaClassifier) classifyFlat(edges []models.Relationship) *models.SchemaDetectionResult {
	annotated := make([]models.Relationship, len(edges))
	copy(annotated, edges)
	return &models.SchemaDetectionResult{
		SchemaType:      models.SchemaTypeFlat,
		Confidence:      meanConfidence(edges),
		FactTables:      []models.TableRole{},
		DimensionTables: []models.TableRole{},
		Relationships:   annotated,
		Explanation: fmt.Sprintf(
			"Datasets are linked (%d relationship(s)) but no dataset references two or more others, so there is no central fact table.",
			len(edges)),
	}
}

func (c *schemaClassifier) classifyAroundHub(hub uuid.UUID, edges []models.Relationship, names map[uuid.UUID]string, matchingRows map[uuid.UUID]int) *models.SchemaDetectionResult {
	// First-level dimensions: datasets the hub references.
	dimensions := make(map[uuid.UUID]struct{})
	var participating []models.Relationship
	for _, e := range edges {
		if e.FromDataset == hub {
			dimensions[e.ToDataset] = struct{}{}
			participating = append(participating, e)
		}
	}

	// Chains: a dimension referencing a further non-hub dataset makes the
	// topology a snowflake and pulls the target in as a second-level
	// dimension. Repeat until the frontier stops growing to follow
	// dim→dim→dim chains.
	snowflake := false
	for grew := true; grew; {
		grew = false
		for _, e := range edges {
			_, fromDim := dimensions[e.FromDataset]
			if !fromDim || e.ToDataset == hub {
				continue
			}
			if _, seen := dimensions[e.ToDataset]; !seen {
				dimensions[e.ToDataset] = struct{}{}
				participating = append(participating, e)
				snowflake = true
				grew = true
			} else if !containsEdge(participating, e) {
				participating = append(participating, e)
				snowflake = true
			}
		}
	}

	schemaType := models.SchemaTypeStar
	if snowflake {
		schemaType = models.SchemaTypeSnowflake
	}

	annotated := make([]models.Relationship, len(participating))
	for i, e := range participating {
		e.SchemaType = string(schemaType)
		e.IsFactTable = e.FromDataset == hub
		e.IsDimensionTable = !e.IsFactTable
		annotated[i] = e
	}

	dimRoles := make([]models.TableRole, 0, len(dimensions))
	for id := range dimensions {
		dimRoles = append(dimRoles, models.TableRole{
			DatasetID:    id,
			DatasetName:  names[id],
			Degree:       degreeOf(id, participating),
			MatchingRows: matchingRows[id],
		})
	}
	sort.Slice(dimRoles, func(i, j int) bool { return dimRoles[i].DatasetName < dimRoles[j].DatasetName })

	factRole := models.TableRole{
		DatasetID:    hub,
		DatasetName:  names[hub],
		Degree:       degreeOf(hub, participating),
		MatchingRows: matchingRows[hub],
	}

	result := &models.SchemaDetectionResult{
		SchemaType:      schemaType,
		Confidence:      meanConfidence(participating),
		FactTables:      []models.TableRole{factRole},
		DimensionTables: dimRoles,
		Relationships:   annotated,
		Explanation:     hubExplanation(schemaType, names[hub], dimRoles, annotated),
	}
	return result
}

func containsEdge(edges []models.Relationship, e models.Relationship) bool {
	for _, x := range edges {
		if x.FromDataset == e.FromDataset && x.ToDataset == e.ToDataset &&
			x.FromColumn == e.FromColumn && x.ToColumn == e.ToColumn {
			return true
		}
	}
	return false
}

func degreeOf(id uuid.UUID, edges []models.Relationship) int {
	peers := make(map[uuid.UUID]struct{})
	for _, e := range edges {
		if e.FromDataset == id {
			peers[e.ToDataset] = struct{}{}
		}
		if e.ToDataset == id {
			peers[e.FromDataset] = struct{}{}
		}
	}
	return len(peers)
}

func meanConfidence(edges []models.Relationship) float64 {
	if len(edges) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range edges {
		sum += e.Confidence
	}
	return sum / float64(len(edges))
}

func noneExplanation(datasetCount int) string {
	if datasetCount < 2 {
		return "At least two datasets are required to detect a schema."
	}
	return "No relationships above the confidence floor connect these datasets."
}

func hubExplanation(schemaType models.SchemaType, hubName string, dims []models.TableRole, edges []models.Relationship) string {
	dimNames := make([]string, len(dims))
	for i, d := range dims {
		dimNames[i] = d.DatasetName
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s references %s via shared key columns, forming a %s schema.",
		hubName, joinNames(dimNames), schemaType)

	if schemaType == models.SchemaTypeSnowflake {
		for _, e := range edges {
			if !e.IsFactTable && e.FromDatasetName != hubName {
				fmt.Fprintf(&sb, " %s further references %s (second-level dimension).",
					e.FromDatasetName, e.ToDatasetName)
			}
		}
	}
	return sb.String()
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "no other datasets"
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
