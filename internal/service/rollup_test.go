package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicer-desk/backend/internal/models"
)

func TestCountsBucketsSumToTotal(t *testing.T) {
	var c Counts
	for _, s := range []string{
		models.StatusNotStarted, "", models.StatusInProgress, models.StatusSentInfo,
		models.StatusWaitingOnInfo, models.StatusWaitingOnPartner, models.StatusComplete,
		models.StatusNA, "Chasing bank",
	} {
		c.Add(s)
	}
	assert.Equal(t, Counts{Total: 9, NotStarted: 2, InProgress: 3, Waiting: 2, Complete: 1, NotApplicable: 1}, c)
	assert.Equal(t, c.Total, c.NotStarted+c.InProgress+c.Waiting+c.Complete+c.NotApplicable)
}

func TestResolveSavingsCountsBundlesOnce(t *testing.T) {
	subs := []models.SubCategory{
		{ID: "s1", MoneySaved: 120},
		{ID: "b2", BundleGroup: "motor-home", BundleName: "Motor & Home", MoneySaved: 0},
		{ID: "b1", BundleGroup: "motor-home", MoneySaved: 360},
		{ID: "s2", MoneySaved: 30.5},
	}

	sum := ResolveSavings(subs)
	assert.InDelta(t, 150.5, sum.Standalone, 1e-9)
	require.Len(t, sum.Bundles, 1)
	b := sum.Bundles[0]
	assert.Equal(t, "motor-home", b.Group)
	assert.Equal(t, "Motor & Home", b.Name)
	assert.InDelta(t, 360, b.Total, 1e-9)
	assert.Equal(t, []string{"b1", "b2"}, b.Members)
	assert.InDelta(t, 510.5, sum.Total, 1e-9)
}

func TestResolveSavingsIdempotent(t *testing.T) {
	subs := []models.SubCategory{
		{ID: "b1", BundleGroup: "g", MoneySaved: 200},
		{ID: "b2", BundleGroup: "g"},
		{ID: "b3", BundleGroup: "g"},
	}
	once := ResolveSavings(subs)

	reordered := []models.SubCategory{subs[2], subs[0], subs[1]}
	assert.Equal(t, once, ResolveSavings(reordered))

	duplicated := append(append([]models.SubCategory{}, subs...), subs...)
	assert.Equal(t, once, ResolveSavings(duplicated))
}

func TestBundleAttribution(t *testing.T) {
	got := BundleAttribution([]string{"c", "a", "b"}, 420)
	assert.Equal(t, map[string]float64{"a": 420, "b": 0, "c": 0}, got)

	members := []models.SubCategory{}
	for id, amount := range got {
		members = append(members, models.SubCategory{ID: id, BundleGroup: "g", MoneySaved: amount})
	}
	assert.InDelta(t, 420, ResolveSavings(members).Total, 1e-9)

	assert.Empty(t, BundleAttribution(nil, 10))
}

func TestSubCategoryProgress(t *testing.T) {
	tasks := []models.Task{
		mkTask("1", models.StatusComplete, nil, withSub("done", "Done", "Insurance")),
		mkTask("2", models.StatusComplete, nil, withSub("done", "Done", "Insurance")),
		mkTask("3", models.StatusComplete, nil, withSub("mixed", "Mixed", "Insurance")),
		mkTask("4", models.StatusNotStarted, nil, withSub("mixed", "Mixed", "Insurance")),
		mkTask("5", models.StatusNotStarted, nil, withSub("fresh", "Fresh", "Insurance")),
		mkTask("6", models.StatusWaitingOnInfo, nil, withSub("waiting", "Waiting", "Insurance")),
	}
	assert.Equal(t, Progress{Total: 4, Completed: 1, InProgress: 2, NotStarted: 1}, SubCategoryProgress(tasks))
}

func TestCustomerRollups(t *testing.T) {
	tasks := []models.Task{
		mkTask("1", models.StatusComplete, nil, withSub("car", "Car Insurance", "Insurance"), withCustomer("+64 21 111", "Mitchells", "s1"), withSavings(360, "bundle")),
		mkTask("2", models.StatusInProgress, nil, withSub("car", "Car Insurance", "Insurance"), withCustomer("+64 21 111", "Mitchells", "s1"), withSavings(360, "bundle")),
		mkTask("3", models.StatusNotStarted, nil, withSub("house", "House Insurance", "Insurance"), withCustomer("+64-21-111", "Mitchells", "s1"), withSavings(0, "bundle")),
		mkTask("4", models.StatusNotStarted, nil, withSub("power", "Power", "Utilities"), withCustomer("+64 21 111", "Mitchells", "s1"), withSavings(80, "")),
		mkTask("5", models.StatusNA, nil, withSub("tax", "Tax", "Tax"), withCustomer("+64 21 222", "Chens", "s2")),
	}

	rollups := CustomerRollups(tasks)
	require.Len(t, rollups, 2)

	m := rollups[0]
	assert.Equal(t, "Mitchells", m.Name)
	assert.Equal(t, "s1", m.ServicerID)
	assert.Equal(t, 4, m.Counts.Total)
	require.Len(t, m.Categories, 2)
	assert.Equal(t, "Insurance", m.Categories[0].Name)
	require.Len(t, m.Categories[0].SubCategories, 2)
	assert.Equal(t, 2, m.Categories[0].SubCategories[0].Counts.Total)
	assert.InDelta(t, 440, m.Savings.Total, 1e-9)

	assert.Equal(t, 1, rollups[1].Counts.NotApplicable)
}

func TestServicerRollups(t *testing.T) {
	tasks := []models.Task{
		mkTask("1", models.StatusComplete, nil, withSub("a", "A", "Insurance"), withCustomer("1", "One", "s1"), withSavings(100, "")),
		mkTask("2", models.StatusInProgress, nil, withSub("b", "B", "Insurance"), withCustomer("1", "One", "s1"), withSavings(50, "")),
	}
	customers := []models.Customer{
		{Phone: "1", AssignedTo: "s1"},
		{Phone: "2", AssignedTo: "s1"},
		{Phone: "3", AssignedTo: "s2"},
	}
	servicers := []models.TeamMember{{ID: "s1", Name: "Sarah"}, {ID: "s2", Name: "Mike"}}

	got := ServicerRollups(tasks, customers, servicers)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].TotalCustomers)
	assert.InDelta(t, 150, got[0].TotalSavings, 1e-9)
	assert.Equal(t, Progress{Total: 2, Completed: 1, InProgress: 1}, got[0].SubCategories)
	assert.Equal(t, ServicerRollup{ServicerID: "s2", Name: "Mike", TotalCustomers: 1}, got[1])
}
