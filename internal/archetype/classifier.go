// Package archetype clusters players within each position group into a small
// number of interpretable archetypes and assigns human-meaningful labels to
// the clusters via optimal bipartite matching against per-position templates.
package archetype

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/courtmetrics/valuation/internal/config"
	"github.com/courtmetrics/valuation/internal/storage"
	"github.com/courtmetrics/valuation/internal/types"
)

// Classifier assigns archetype labels per position group and season.
type Classifier struct {
	store  storage.Store
	cfg    config.ClassifierConfig
	logger *logrus.Logger
}

// NewClassifier creates an archetype classifier with explicit configuration.
func NewClassifier(store storage.Store, cfg config.ClassifierConfig, logger *logrus.Logger) *Classifier {
	return &Classifier{store: store, cfg: cfg, logger: logger}
}

// ClassifySeason classifies all five position groups and resolves players who
// qualified for more than one group by keeping the highest-confidence row, so
// exactly one archetype row exists per player.
func (c *Classifier) ClassifySeason(ctx context.Context, season string) ([]types.PlayerArchetype, error) {
	stats, err := c.store.PlayerSeasonStats(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("archetype classification for season %s: %w", season, err)
	}

	var all []types.PlayerArchetype
	for _, group := range AllPositionGroups() {
		all = append(all, c.classifyGroup(season, group, stats)...)
	}
	return KeepHighestConfidence(all), nil
}

// ClassifyPositionGroup classifies a single position group. Data sparsity
// (too few qualifying players) yields an empty result, never an error.
func (c *Classifier) ClassifyPositionGroup(ctx context.Context, season string, group PositionGroup) ([]types.PlayerArchetype, error) {
	stats, err := c.store.PlayerSeasonStats(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("archetype classification for season %s group %s: %w", season, group, err)
	}
	return c.classifyGroup(season, group, stats), nil
}

func (c *Classifier) classifyGroup(season string, group PositionGroup, stats []types.PlayerSeasonStat) []types.PlayerArchetype {
	log := c.logger.WithFields(logrus.Fields{
		"season":         season,
		"position_group": string(group),
	})

	qualified := c.qualifyingPlayers(group, stats)
	if len(qualified) < c.cfg.MinGroupPlayers {
		log.WithField("qualified_players", len(qualified)).
			Warn("Skipping position group, too few qualifying players")
		return nil
	}

	n := len(qualified)
	dim := len(featureNames)
	weights := positionWeights(group)

	// Weighted raw feature matrix.
	raw := mat.NewDense(n, dim, nil)
	for i, q := range qualified {
		vec := featureVector(q)
		for j := range vec {
			raw.Set(i, j, vec[j]*weights[j])
		}
	}

	standardized := standardizeColumns(raw)

	projected, vectors, nComp, ok := c.reduce(standardized, n, dim)
	if !ok {
		log.Warn("Skipping position group, PCA failed on degenerate feature matrix")
		return nil
	}

	points := denseRows(projected)
	bestK, final := c.selectAndCluster(points, n, log)

	log.WithFields(logrus.Fields{
		"players":        n,
		"components":     nComp,
		"k":              bestK,
		"distinct_sizes": distinctClusters(final.Assignments),
	}).Info("Clustered position group")

	labels := c.labelClusters(group, final.Centroids, vectors, nComp, weights, log)
	confidences := assignmentConfidence(final.Distances)

	rows := make([]types.PlayerArchetype, 0, n)
	for i, q := range qualified {
		cluster := final.Assignments[i]
		rows = append(rows, types.PlayerArchetype{
			PlayerID:      q.PlayerID,
			Season:        season,
			PositionGroup: string(group),
			ClusterID:     cluster,
			Label:         labels[cluster],
			Confidence:    confidences[i],
			Features:      types.FloatVector(mat.Row(nil, i, standardized)),
		})
	}
	return rows
}

// qualifyingPlayers filters to players listed at the group's positions with
// enough minutes, collapsing duplicate rows from dual team assignments by
// keeping the higher-minutes row.
func (c *Classifier) qualifyingPlayers(group PositionGroup, stats []types.PlayerSeasonStat) []types.PlayerSeasonStat {
	byPlayer := make(map[int64]types.PlayerSeasonStat)
	order := make([]int64, 0)
	for _, s := range stats {
		if !group.Accepts(s.Position) || s.MinutesTotal < c.cfg.MinMinutesTotal {
			continue
		}
		existing, seen := byPlayer[s.PlayerID]
		if !seen {
			order = append(order, s.PlayerID)
			byPlayer[s.PlayerID] = s
			continue
		}
		if s.MinutesTotal > existing.MinutesTotal {
			byPlayer[s.PlayerID] = s
		}
	}
	out := make([]types.PlayerSeasonStat, 0, len(order))
	for _, id := range order {
		out = append(out, byPlayer[id])
	}
	return out
}

// reduce z-scored features to min(MaxPCAComponents, dim, n-1) principal
// components, floored at 2, bounding cluster geometry noise on small samples.
func (c *Classifier) reduce(standardized *mat.Dense, n, dim int) (*mat.Dense, *mat.Dense, int, bool) {
	nComp := c.cfg.MaxPCAComponents
	if dim < nComp {
		nComp = dim
	}
	if n-1 < nComp {
		nComp = n - 1
	}
	if nComp < 2 {
		nComp = 2
	}
	if nComp > dim {
		nComp = dim
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(standardized, nil); !ok {
		return nil, nil, 0, false
	}
	var vectors mat.Dense
	pc.VectorsTo(&vectors)

	projected := mat.NewDense(n, nComp, nil)
	projected.Mul(standardized, vectors.Slice(0, dim, 0, nComp))
	return projected, &vectors, nComp, true
}

// selectAndCluster scores each candidate K by silhouette and re-runs k-means
// at the winner. Candidates collapsing below 2 distinct clusters are skipped;
// if every candidate collapses, the range minimum is used as a fallback.
func (c *Classifier) selectAndCluster(points [][]float64, n int, log *logrus.Entry) (int, kmeansResult) {
	kMin := c.cfg.KMin
	if kMin < 3 {
		kMin = 3 // archetype interpretability floor
	}
	kMax := c.cfg.KMax
	if kMax > n-1 {
		kMax = n - 1
	}
	if kMax < kMin {
		kMax = kMin
	}

	bestK := 0
	bestScore := 0.0
	for k := kMin; k <= kMax; k++ {
		rng := rand.New(rand.NewSource(c.cfg.Seed + int64(k)))
		result := runKMeans(points, k, c.cfg.Restarts, rng)
		if distinctClusters(result.Assignments) < 2 {
			continue
		}
		score := silhouetteScore(points, result.Assignments)
		if bestK == 0 || score > bestScore {
			bestK = k
			bestScore = score
		}
	}
	if bestK == 0 {
		log.WithField("k_fallback", kMin).Warn("No candidate K produced 2+ clusters, falling back to range minimum")
		bestK = kMin
	}

	rng := rand.New(rand.NewSource(c.cfg.Seed + int64(bestK)))
	return bestK, runKMeans(points, bestK, c.cfg.Restarts, rng)
}

// labelClusters inverts the PCA projection and undoes the position weighting
// to recover centroids in standardized feature space, scores them against the
// group's named templates, and solves the cluster-to-label mapping as a
// minimum-cost assignment. Surplus clusters beyond the named templates get
// neutral-cost numbered placeholders.
func (c *Classifier) labelClusters(group PositionGroup, centroids [][]float64, vectors *mat.Dense, nComp int, weights []float64, log *logrus.Entry) []string {
	dim := len(featureNames)
	templates := templatesFor(group)
	k := len(centroids)

	if k > len(templates) {
		log.WithFields(logrus.Fields{
			"clusters":  k,
			"templates": len(templates),
		}).Warn("More clusters than named archetypes, extending with placeholder labels")
		for i := len(templates); i < k; i++ {
			templates = append(templates, labelTemplate{
				Label: fmt.Sprintf("%s Type-%d", group, i+1),
			})
		}
	}

	cost := make([][]float64, k)
	for i, centroid := range centroids {
		// Back-project: standardized = V[:, :nComp] * centroid.
		std := make([]float64, dim)
		for d := 0; d < dim; d++ {
			for j := 0; j < nComp; j++ {
				std[d] += vectors.At(d, j) * centroid[j]
			}
		}
		// Undo the position-specific feature weighting.
		for d := 0; d < dim; d++ {
			if weights[d] != 0 {
				std[d] /= weights[d]
			}
		}

		cost[i] = make([]float64, len(templates))
		for j, tmpl := range templates {
			cost[i][j] = -tmpl.score(std)
		}
	}

	assigned := solveAssignment(cost)
	labels := make([]string, k)
	for i, j := range assigned {
		if j < 0 {
			labels[i] = fmt.Sprintf("%s Type-%d", group, i+1)
			continue
		}
		labels[i] = templates[j].Label
	}
	return labels
}

// assignmentConfidence maps each player's distance to their centroid into
// [0,1]: 1 at the centroid, 0 at the group's maximum distance.
func assignmentConfidence(distances []float64) []float64 {
	maxDist := 0.0
	for _, d := range distances {
		if d > maxDist {
			maxDist = d
		}
	}
	out := make([]float64, len(distances))
	for i, d := range distances {
		if maxDist > 0 {
			out[i] = 1 - d/maxDist
		} else {
			out[i] = 1
		}
	}
	return out
}

// KeepHighestConfidence resolves players classified in multiple position
// groups by an explicit keep-max-by-key reduction: the highest-confidence
// row wins, and on an exact tie the earliest-classified group is kept
// (strict > comparison).
func KeepHighestConfidence(rows []types.PlayerArchetype) []types.PlayerArchetype {
	best := make(map[int64]types.PlayerArchetype)
	order := make([]int64, 0, len(rows))
	for _, row := range rows {
		existing, seen := best[row.PlayerID]
		if !seen {
			order = append(order, row.PlayerID)
			best[row.PlayerID] = row
			continue
		}
		if row.Confidence > existing.Confidence {
			best[row.PlayerID] = row
		}
	}
	out := make([]types.PlayerArchetype, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}

// standardizeColumns z-scores each column; a zero-variance column becomes all
// zeros rather than dividing by zero.
func standardizeColumns(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		mean, std := stat.MeanStdDev(col, nil)
		for i := 0; i < r; i++ {
			if std > 0 {
				out.Set(i, j, (col[i]-mean)/std)
			}
		}
	}
	return out
}

func denseRows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}
