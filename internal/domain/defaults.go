package domain

import "time"

const (
	DefaultEntityName = "新宠物"
	defaultWeight     = "0"
	birthdateLayout   = "2006-01-02"
)

func DefaultTags() []Tag {
	return []Tag{
		{ID: "1", Label: "社交达人", ColorClass: "bg-pink-100 text-pink-600", Icon: "🎉"},
		{ID: "2", Label: "淡定大哥", ColorClass: "bg-blue-100 text-blue-600", Icon: "😎"},
		{ID: "3", Label: "吃货本尊", ColorClass: "bg-yellow-100 text-yellow-700", Icon: "🍗"},
	}
}

func DefaultMilestones() []Milestone {
	return []Milestone{
		{ID: "1", Title: "首次洗澡", Date: "2023.04.10", Completed: true, Type: MilestoneBath},
		{ID: "2", Title: "首次寄养", Date: "2023.06.15", Completed: true, Type: MilestoneHome},
		{ID: "3", Title: "1岁生日", Date: "2024.03.15", Completed: true, Type: MilestoneCake},
		{ID: "4", Title: "10次洗护达成", Date: "2024.11.20", Completed: true, Type: MilestoneAward},
		{ID: "5", Title: "2岁生日", Date: "2025.03.15", Completed: false, Type: MilestoneCake},
	}
}

func DefaultVouchers() []Voucher {
	return []Voucher{
		{
			ID: "1", Kind: "free", Title: "免费零食券", Subtitle: "精选宠物小零食", ValidityLabel: "2025.06.30",
			Code: "SNACK2025", ColorFrom: "from-pink-500", ColorTo: "to-rose-500", Status: VoucherActive, IconRef: "Gift",
		},
		{
			ID: "2", Kind: "upgrade", Title: "洗澡升级券", Subtitle: "SPA护理升级", ValidityLabel: "2025.03.31",
			Code: "UPGRADE01", ColorFrom: "from-blue-400", ColorTo: "to-cyan-500", Status: VoucherActive, IconRef: "Sparkles",
		},
		{
			ID: "3", Kind: "birthday", Title: "生日特权券", Subtitle: "生日月专属礼遇", ValidityLabel: "生日当月可用",
			Code: "BIRTHDAY", ColorFrom: "from-amber-400", ColorTo: "to-orange-500", Status: VoucherActive, IconRef: "Cake",
		},
	}
}

// NewBundle seeds a bundle for a freshly created entity.
func NewBundle(name string, now time.Time) *EntityBundle {
	if name == "" {
		name = DefaultEntityName
	}
	return &EntityBundle{
		Entity: Entity{
			ID:        NewID(),
			Name:      name,
			Birthdate: now.Format(birthdateLayout),
			Weight:    defaultWeight,
			Tags:      DefaultTags(),
		},
		ServiceRecords: []ServiceRecord{},
		DiaryEntries:   []DiaryEntry{},
		Milestones:     DefaultMilestones(),
		WeightSamples:  []WeightSample{},
		Vouchers:       DefaultVouchers(),
	}
}

// SeedSnapshot is the store used when nothing has been saved yet: a single
// example entity with some weight history.
func SeedSnapshot(now time.Time) *Snapshot {
	b := NewBundle("Momo", now)
	b.Entity.Breed = "金毛寻回犬"
	b.Entity.Weight = "28.5"
	b.Entity.Birthdate = "2023-03-15"
	b.WeightSamples = []WeightSample{
		{MonthKey: "2023-03", Value: 5.5},
		{MonthKey: "2023-06", Value: 12.0},
		{MonthKey: "2023-09", Value: 18.5},
		{MonthKey: "2023-12", Value: 24.0},
		{MonthKey: "2024-03", Value: 28.5},
	}
	return &Snapshot{
		Bundles:  map[string]*EntityBundle{b.Entity.ID: b},
		ActiveID: b.Entity.ID,
	}
}
