package models

type SavingsKind int

const (
	SavingsStandalone SavingsKind = iota
	SavingsBundleMember
)

func (k SavingsKind) String() string {
	if k == SavingsBundleMember {
		return "bundle_member"
	}
	return "standalone"
}

// Savings is what a sub-category contributes to a money-saved total.
// A standalone sub-category carries its own Amount; a bundle member only
// names its group and the amount is read from the resolved Bundle.
type Savings struct {
	Kind        SavingsKind `json:"-"`
	KindName    string      `json:"kind"`
	Amount      float64     `json:"amount,omitempty"`
	BundleGroup string      `json:"bundle_group,omitempty"`
}

func Standalone(amount float64) Savings {
	return Savings{Kind: SavingsStandalone, KindName: SavingsStandalone.String(), Amount: amount}
}

func BundleMember(group string) Savings {
	return Savings{Kind: SavingsBundleMember, KindName: SavingsBundleMember.String(), BundleGroup: group}
}

func (s SubCategory) Savings() Savings {
	if s.BundleGroup != "" {
		return BundleMember(s.BundleGroup)
	}
	return Standalone(s.MoneySaved)
}

// Bundle is a set of sub-categories reported as one combined saving.
// Total is the sum of the members' stored amounts, so it does not depend on
// which member physically holds the figure.
type Bundle struct {
	Group   string   `json:"bundle_group"`
	Name    string   `json:"bundle_name"`
	Total   float64  `json:"total"`
	Members []string `json:"members"`
}
