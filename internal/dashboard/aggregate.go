package dashboard

import (
	"sort"
	"strconv"

	"github.com/justestif/go-sparkify/internal/model"
)

// DefaultTopN is the number of listeners in the top listeners chart.
const DefaultTopN = 10

// Aggregates are the songplay counts charted by the dashboard.
type Aggregates struct {
	TopUsers []model.PlayCount `json:"top_users"`
	ByLevel  []model.PlayCount `json:"by_level"`
	ByGender []model.PlayCount `json:"by_gender"`
	Total    int               `json:"total"`
}

// GenderLabel maps a gender code to its display label.
func GenderLabel(gender string) string {
	if gender == "F" {
		return "Female"
	}
	return "Male"
}

// LabelGenders relabels gender counts for display, merging codes that share a
// label, and sorts them by plays.
func LabelGenders(counts []model.PlayCount) []model.PlayCount {
	var out []model.PlayCount
	pos := make(map[string]int)
	for _, c := range counts {
		label := GenderLabel(c.Key)
		if i, ok := pos[label]; ok {
			out[i].Plays += c.Plays
			continue
		}
		pos[label] = len(out)
		out = append(out, model.PlayCount{Key: label, Label: label, Plays: c.Plays})
	}
	sortByPlays(out)
	return out
}

// Aggregate joins songplays to users and counts plays per user (the topN
// largest), per subscription level and per gender. Ties keep the order of
// first appearance in the songplay table.
func (t *Tables) Aggregate(topN int) Aggregates {
	if topN <= 0 {
		topN = DefaultTopN
	}
	users := make(map[int]model.User, len(t.Users))
	for _, u := range t.Users {
		users[u.UserID] = u
	}

	byUser := newCounter()
	byLevel := newCounter()
	byGender := newCounter()
	for _, p := range t.Songplays {
		u, ok := users[p.UserID]
		label := strconv.Itoa(p.UserID)
		if ok && u.Name() != "" {
			label = u.Name()
		}
		byUser.add(strconv.Itoa(p.UserID), label)
		byLevel.add(p.Level, p.Level)
		byGender.add(u.Gender, u.Gender)
	}

	top := byUser.sorted()
	if len(top) > topN {
		top = top[:topN]
	}
	return Aggregates{
		TopUsers: top,
		ByLevel:  byLevel.sorted(),
		ByGender: LabelGenders(byGender.sorted()),
		Total:    len(t.Songplays),
	}
}

// counter counts plays per key in order of first appearance.
type counter struct {
	counts []model.PlayCount
	pos    map[string]int
}

func newCounter() *counter {
	return &counter{pos: make(map[string]int)}
}

func (c *counter) add(key, label string) {
	if i, ok := c.pos[key]; ok {
		c.counts[i].Plays++
		return
	}
	c.pos[key] = len(c.counts)
	c.counts = append(c.counts, model.PlayCount{Key: key, Label: label, Plays: 1})
}

func (c *counter) sorted() []model.PlayCount {
	out := append([]model.PlayCount(nil), c.counts...)
	sortByPlays(out)
	return out
}

func sortByPlays(counts []model.PlayCount) {
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Plays > counts[j].Plays
	})
}
