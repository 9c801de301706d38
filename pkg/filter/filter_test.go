package filter

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct {
	id       int
	name     string
	store    string
	status   string
	priority string
}

var rows = []row{
	{1, "John Smith", "Downtown Electronics", "Unresolved", "High"},
	{2, "Sarah Johnson", "Mall Security Center", "In Progress", "Medium"},
	{3, "Mike Wilson", "Retail Chain Store #5", "Resolved", "Low"},
	{4, "Lisa Chen", "Jewelry Store Premium", "Unresolved", "Critical"},
}

func byName(r row) string     { return r.name }
func byStore(r row) string    { return r.store }
func byStatus(r row) string   { return r.status }
func byPriority(r row) string { return r.priority }

func ids(in []row) []int {
	out := make([]int, 0, len(in))
	for _, r := range in {
		out = append(out, r.id)
	}
	return out
}

func TestApply_NoActivePredicatesReturnsInput(t *testing.T) {
	got := Apply(rows,
		Search("   ", byName, byStore),
		Enum("all", byStatus),
		Enum("", byPriority),
	)

	assert.Equal(t, rows, got)
}

func TestApply_SearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	assert.Equal(t, []int{3, 4}, ids(Apply(rows, Search("STORE", byName, byStore))))
	assert.Equal(t, []int{2}, ids(Apply(rows, Search("sarah", byName, byStore))))
	assert.Empty(t, Apply(rows, Search("warehouse", byName, byStore)))
}

func TestApply_EnumNormalizesSpaces(t *testing.T) {
	assert.Equal(t, []int{2}, ids(Apply(rows, Enum("inprogress", byStatus))))
	assert.Equal(t, []int{2}, ids(Apply(rows, Enum("In Progress", byStatus))))
	assert.Equal(t, []int{2}, ids(Apply(rows, Enum("in_progress", byStatus))))
}

func TestApply_Conjunction(t *testing.T) {
	got := Apply(rows,
		Search("s", byName),
		Enum("unresolved", byStatus),
		Enum("high", byPriority),
	)

	assert.Equal(t, []int{1}, ids(got))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	input := append([]row(nil), rows...)
	_ = Apply(input, Enum("resolved", byStatus))

	assert.Equal(t, rows, input)
}

func TestApply_ResultIsSubsetSatisfyingEveryPredicate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	statuses := []string{"all", "unresolved", "inprogress", "resolved", ""}
	priorities := []string{"all", "critical", "high", "medium", "low"}
	terms := []string{"", "o", "store", "MI", "xyz", "#5"}

	for i := 0; i < 200; i++ {
		term := terms[rng.Intn(len(terms))]
		status := statuses[rng.Intn(len(statuses))]
		priority := priorities[rng.Intn(len(priorities))]

		search := Search(term, byName, byStore)
		statusPred := Enum(status, byStatus)
		priorityPred := Enum(priority, byPriority)

		got := Apply(rows, search, statusPred, priorityPred)

		t.Run(fmt.Sprintf("%q/%s/%s", term, status, priority), func(t *testing.T) {
			assert.LessOrEqual(t, len(got), len(rows))
			last := 0
			for _, r := range got {
				assert.Greater(t, r.id, last, "order must be preserved")
				last = r.id
				for _, p := range []Predicate[row]{search, statusPred, priorityPred} {
					if p != nil {
						assert.True(t, p(r))
					}
				}
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	assert.Equal(t, []int{1, 2}, ids(Paginate(rows, 2, 0)))
	assert.Equal(t, []int{3, 4}, ids(Paginate(rows, 2, 2)))
	assert.Equal(t, []int{4}, ids(Paginate(rows, 10, 3)))
	assert.Empty(t, Paginate(rows, 2, 10))
	assert.Equal(t, []int{1, 2, 3, 4}, ids(Paginate(rows, 0, -1)))
}

func TestIsAll(t *testing.T) {
	assert.True(t, IsAll(""))
	assert.True(t, IsAll(" ALL "))
	assert.False(t, IsAll("paid"))
}
