package model

import "fmt"

// The enumerated domain values are stored as their exact literals; the
// remote store and both app clients share them verbatim. Each type has a
// parse function so invalid values are rejected at the boundary instead of
// leaking into the cache.

// ShiftKind is the kind of work shift on a given date.
type ShiftKind string

const (
	ShiftDay      ShiftKind = "日勤" // day shift
	ShiftNight    ShiftKind = "夜勤" // night shift
	ShiftPostNite ShiftKind = "明け" // morning after a night shift
	ShiftOff      ShiftKind = "休日" // day off
)

// ShiftKinds lists all valid shift kinds in display order.
var ShiftKinds = []ShiftKind{ShiftDay, ShiftNight, ShiftPostNite, ShiftOff}

func (k ShiftKind) Valid() bool {
	switch k {
	case ShiftDay, ShiftNight, ShiftPostNite, ShiftOff:
		return true
	}
	return false
}

func ParseShiftKind(s string) (ShiftKind, error) {
	k := ShiftKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("invalid shift kind %q", s)
	}
	return k, nil
}

// ShiftKindInfo pairs a kind with its presentation icon and label.
type ShiftKindInfo struct {
	Kind  ShiftKind
	Icon  string
	Label string
}

// ShiftKindInfos is the display table used by dashboard-style consumers.
var ShiftKindInfos = []ShiftKindInfo{
	{Kind: ShiftDay, Icon: "\U0001F305", Label: "日勤"},
	{Kind: ShiftNight, Icon: "\U0001F319", Label: "夜勤"},
	{Kind: ShiftPostNite, Icon: "\U0001F634", Label: "明け"},
	{Kind: ShiftOff, Icon: "\U0001F3E0", Label: "休日"},
}

// InfoForShiftKind returns the display entry for k, or nil if k is unknown.
func InfoForShiftKind(k ShiftKind) *ShiftKindInfo {
	for i := range ShiftKindInfos {
		if ShiftKindInfos[i].Kind == k {
			return &ShiftKindInfos[i]
		}
	}
	return nil
}

// Role distinguishes the two household partners.
type Role string

const (
	RoleHusband Role = "夫"
	RoleWife    Role = "妻"
)

func (r Role) Valid() bool {
	return r == RoleHusband || r == RoleWife
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}

// TaskCategory classifies a chore.
type TaskCategory string

const (
	CategoryCooking   TaskCategory = "料理"
	CategoryLaundry   TaskCategory = "洗濯"
	CategoryCleaning  TaskCategory = "掃除"
	CategoryChildcare TaskCategory = "育児"
	CategoryShopping  TaskCategory = "買い物"
	CategoryOther     TaskCategory = "その他"
)

// TaskCategories lists all valid categories in display order.
var TaskCategories = []TaskCategory{
	CategoryCooking, CategoryLaundry, CategoryCleaning,
	CategoryChildcare, CategoryShopping, CategoryOther,
}

func (c TaskCategory) Valid() bool {
	for _, v := range TaskCategories {
		if c == v {
			return true
		}
	}
	return false
}

func ParseTaskCategory(s string) (TaskCategory, error) {
	c := TaskCategory(s)
	if !c.Valid() {
		return "", fmt.Errorf("invalid task category %q", s)
	}
	return c, nil
}

// TaskFrequency is a descriptive recurrence label. It does not drive any
// scheduling; no future task instances are materialized from it.
type TaskFrequency string

const (
	FreqDaily       TaskFrequency = "毎日"
	FreqTwiceWeekly TaskFrequency = "週2回"
	FreqThriceWeek  TaskFrequency = "週3回"
	FreqBiweekly    TaskFrequency = "隔週"
	FreqWeekly      TaskFrequency = "週1回"
)

// TaskFrequencies lists all valid frequency labels in display order.
var TaskFrequencies = []TaskFrequency{
	FreqDaily, FreqTwiceWeekly, FreqThriceWeek, FreqBiweekly, FreqWeekly,
}

func (f TaskFrequency) Valid() bool {
	for _, v := range TaskFrequencies {
		if f == v {
			return true
		}
	}
	return false
}

func ParseTaskFrequency(s string) (TaskFrequency, error) {
	f := TaskFrequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("invalid task frequency %q", s)
	}
	return f, nil
}
