package service

import (
	"sort"

	"github.com/servicer-desk/backend/internal/models"
	"github.com/servicer-desk/backend/internal/utils"
)

// Counts tallies tasks by lifecycle bucket. Every task lands in exactly one
// bucket, so the buckets always sum to Total.
type Counts struct {
	Total         int `json:"total"`
	NotStarted    int `json:"not_started"`
	InProgress    int `json:"in_progress"`
	Waiting       int `json:"waiting"`
	Complete      int `json:"complete"`
	NotApplicable int `json:"not_applicable"`
}

func (c *Counts) Add(status string) {
	c.Total++
	switch status {
	case models.StatusComplete:
		c.Complete++
	case models.StatusNA:
		c.NotApplicable++
	case models.StatusWaitingOnInfo, models.StatusWaitingOnPartner:
		c.Waiting++
	case models.StatusNotStarted, "":
		c.NotStarted++
	default:
		c.InProgress++
	}
}

// SavingsSummary is the money saved across a set of sub-categories with
// each bundle counted once.
type SavingsSummary struct {
	Standalone float64         `json:"standalone"`
	Bundles    []models.Bundle `json:"bundles"`
	Total      float64         `json:"total"`
}

// ResolveSavings folds sub-categories into standalone amounts and bundles.
// Duplicate ids are counted once. A bundle's total is the sum of what its
// members store, so reordering members never changes the figure.
func ResolveSavings(subs []models.SubCategory) SavingsSummary {
	seen := map[string]struct{}{}
	bundles := map[string]*models.Bundle{}
	var sum SavingsSummary

	for _, sc := range subs {
		if sc.ID != "" {
			if _, ok := seen[sc.ID]; ok {
				continue
			}
			seen[sc.ID] = struct{}{}
		}
		sv := sc.Savings()
		if sv.Kind == models.SavingsStandalone {
			sum.Standalone += sv.Amount
			continue
		}
		b, ok := bundles[sv.BundleGroup]
		if !ok {
			b = &models.Bundle{Group: sv.BundleGroup}
			bundles[sv.BundleGroup] = b
		}
		if b.Name == "" {
			b.Name = sc.BundleName
		}
		b.Total += sc.MoneySaved
		b.Members = append(b.Members, sc.ID)
	}

	sum.Bundles = make([]models.Bundle, 0, len(bundles))
	for _, b := range bundles {
		sort.Strings(b.Members)
		sum.Bundles = append(sum.Bundles, *b)
	}
	sort.Slice(sum.Bundles, func(i, j int) bool { return sum.Bundles[i].Group < sum.Bundles[j].Group })

	sum.Total = sum.Standalone
	for _, b := range sum.Bundles {
		sum.Total += b.Total
	}
	return sum
}

// BundleAttribution returns the amount each member should store so that
// the bundle total sits on the lowest id and every other member holds zero.
func BundleAttribution(memberIDs []string, total float64) map[string]float64 {
	out := make(map[string]float64, len(memberIDs))
	if len(memberIDs) == 0 {
		return out
	}
	ids := append([]string(nil), memberIDs...)
	sort.Strings(ids)
	for _, id := range ids {
		out[id] = 0
	}
	out[ids[0]] = total
	return out
}

type Progress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	NotStarted int `json:"not_started"`
}

// SubCategoryProgress classifies the sub-categories the tasks belong to.
// A sub-category is completed when all of its tasks are Complete and in
// progress when any task has left Not Started.
func SubCategoryProgress(tasks []models.Task) Progress {
	type agg struct {
		total, complete, started int
	}
	bySub := map[string]*agg{}
	order := []string{}
	for _, t := range tasks {
		key := t.SubCategoryID
		if key == "" && t.SubCategory != nil {
			key = t.SubCategory.ID
		}
		if key == "" {
			continue
		}
		a, ok := bySub[key]
		if !ok {
			a = &agg{}
			bySub[key] = a
			order = append(order, key)
		}
		a.total++
		if t.Status == models.StatusComplete {
			a.complete++
		}
		if t.Status != models.StatusNotStarted && t.Status != "" {
			a.started++
		}
	}

	var p Progress
	for _, key := range order {
		a := bySub[key]
		p.Total++
		switch {
		case a.total > 0 && a.complete == a.total:
			p.Completed++
		case a.started > 0:
			p.InProgress++
		default:
			p.NotStarted++
		}
	}
	return p
}

type SubCategoryRollup struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Status      string         `json:"overall_status,omitempty"`
	Counts      Counts         `json:"counts"`
	Savings     models.Savings `json:"savings"`
	BundleGroup string         `json:"bundle_group,omitempty"`
}

type CategoryRollup struct {
	Name          string              `json:"name"`
	Counts        Counts              `json:"counts"`
	SubCategories []SubCategoryRollup `json:"sub_categories"`
}

type CustomerRollup struct {
	Phone      string           `json:"phone"`
	Name       string           `json:"name"`
	ServicerID string           `json:"servicer_id,omitempty"`
	Counts     Counts           `json:"counts"`
	Categories []CategoryRollup `json:"categories"`
	Savings    SavingsSummary   `json:"savings"`
}

// CustomerRollups groups tasks by customer, then category name, then
// sub-category. Customers come out in order of first appearance. Tasks
// whose customer link is missing are grouped under an empty phone.
func CustomerRollups(tasks []models.Task) []CustomerRollup {
	type subAcc struct {
		rollup SubCategoryRollup
		sub    models.SubCategory
	}
	type catAcc struct {
		rollup CategoryRollup
		subs   map[string]*subAcc
		order  []string
	}
	type custAcc struct {
		rollup CustomerRollup
		cats   map[string]*catAcc
		order  []string
	}

	customers := map[string]*custAcc{}
	var order []string

	for _, t := range tasks {
		key := utils.NormalizePhone(t.CustomerPhone())
		ca, ok := customers[key]
		if !ok {
			ca = &custAcc{
				rollup: CustomerRollup{Phone: t.CustomerPhone(), Name: t.CustomerName(), ServicerID: t.ServicerID()},
				cats:   map[string]*catAcc{},
			}
			customers[key] = ca
			order = append(order, key)
		}
		ca.rollup.Counts.Add(t.Status)

		catName := t.CategoryName()
		cat, ok := ca.cats[catName]
		if !ok {
			cat = &catAcc{rollup: CategoryRollup{Name: catName}, subs: map[string]*subAcc{}}
			ca.cats[catName] = cat
			ca.order = append(ca.order, catName)
		}
		cat.rollup.Counts.Add(t.Status)

		subID := t.SubCategoryID
		var sub models.SubCategory
		if t.SubCategory != nil {
			sub = *t.SubCategory
			if subID == "" {
				subID = sub.ID
			}
		}
		sa, ok := cat.subs[subID]
		if !ok {
			sub.ID = subID
			sub.Category = nil
			sub.Tasks = nil
			sa = &subAcc{
				rollup: SubCategoryRollup{
					ID:          subID,
					Name:        sub.Name,
					Status:      sub.OverallStatus,
					Savings:     sub.Savings(),
					BundleGroup: sub.BundleGroup,
				},
				sub: sub,
			}
			cat.subs[subID] = sa
			cat.order = append(cat.order, subID)
		}
		sa.rollup.Counts.Add(t.Status)
	}

	out := make([]CustomerRollup, 0, len(order))
	for _, key := range order {
		ca := customers[key]
		var subs []models.SubCategory
		for _, catName := range ca.order {
			cat := ca.cats[catName]
			for _, subID := range cat.order {
				sa := cat.subs[subID]
				cat.rollup.SubCategories = append(cat.rollup.SubCategories, sa.rollup)
				if subID != "" {
					subs = append(subs, sa.sub)
				}
			}
			ca.rollup.Categories = append(ca.rollup.Categories, cat.rollup)
		}
		ca.rollup.Savings = ResolveSavings(subs)
		out = append(out, ca.rollup)
	}
	return out
}

type ServicerRollup struct {
	ServicerID     string   `json:"servicer_id"`
	Name           string   `json:"name"`
	TotalCustomers int      `json:"total_customers"`
	TotalSavings   float64  `json:"total_savings"`
	Tasks          Counts   `json:"tasks"`
	SubCategories  Progress `json:"sub_categories"`
}

// ServicerRollups summarises each servicer's book of work in roster order.
// Customer counts come from assignments, so a servicer whose customers have
// no tasks yet still reports them.
func ServicerRollups(tasks []models.Task, customers []models.Customer, servicers []models.TeamMember) []ServicerRollup {
	tasksBy := map[string][]models.Task{}
	for _, t := range tasks {
		if id := t.ServicerID(); id != "" {
			tasksBy[id] = append(tasksBy[id], t)
		}
	}
	customersBy := map[string]int{}
	for _, c := range customers {
		if c.AssignedTo != "" {
			customersBy[c.AssignedTo]++
		}
	}

	out := make([]ServicerRollup, 0, len(servicers))
	for _, s := range servicers {
		own := tasksBy[s.ID]
		r := ServicerRollup{
			ServicerID:     s.ID,
			Name:           s.Name,
			TotalCustomers: customersBy[s.ID],
			SubCategories:  SubCategoryProgress(own),
		}
		var subs []models.SubCategory
		for _, t := range own {
			r.Tasks.Add(t.Status)
			if t.SubCategory != nil {
				subs = append(subs, *t.SubCategory)
			}
		}
		r.TotalSavings = ResolveSavings(subs).Total
		out = append(out, r)
	}
	return out
}
