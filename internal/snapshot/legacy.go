package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/vbonduro/islandlife/internal/domain"
)

// legacyBundle is the version 1 layout, keyed by entity id at the top level.
type legacyBundle struct {
	Profile struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		Birthday  string  `json:"birthday"`
		Breed     string  `json:"breed"`
		Weight    string  `json:"weight"`
		Avatar    *string `json:"avatar"`
		PawPrint  *string `json:"pawPrint"`
		NosePrint *string `json:"nosePrint"`
		Tags      []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
			Color string `json:"color"`
			Icon  string `json:"icon"`
		} `json:"tags"`
	} `json:"profile"`
	Grooming []struct {
		ID          string   `json:"id"`
		ServiceName string   `json:"serviceName"`
		Date        string   `json:"date"`
		Photos      []string `json:"photos"`
		Advice      string   `json:"advice"`
		Tags        []string `json:"tags"`
	} `json:"grooming"`
	Foster []struct {
		ID        string      `json:"id"`
		DateRange string      `json:"dateRange"`
		Duration  string      `json:"duration"`
		Mood      domain.Mood `json:"mood"`
		Content   string      `json:"content"`
		Photos    []string    `json:"photos"`
	} `json:"foster"`
	Milestones    []domain.Milestone `json:"milestones"`
	WeightHistory []struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	} `json:"weightHistory"`
	Coupons []struct {
		ID        string               `json:"id"`
		Type      string               `json:"type"`
		Title     string               `json:"title"`
		Subtitle  string               `json:"subtitle"`
		ValidDate string               `json:"validDate"`
		Code      string               `json:"code"`
		ColorFrom string               `json:"colorFrom"`
		ColorTo   string               `json:"colorTo"`
		Status    domain.VoucherStatus `json:"status"`
		IconName  string               `json:"iconName"`
	} `json:"coupons"`
}

func decodeLegacy(data []byte) (map[string]*domain.EntityBundle, error) {
	var legacy map[string]*legacyBundle
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to decode legacy snapshot: %w", err)
	}

	bundles := make(map[string]*domain.EntityBundle, len(legacy))
	for id, lb := range legacy {
		if lb == nil {
			return nil, fmt.Errorf("failed to decode legacy snapshot: bundle %q is null", id)
		}
		bundles[id] = lb.convert()
	}
	return bundles, nil
}

func (lb *legacyBundle) convert() *domain.EntityBundle {
	p := lb.Profile
	b := &domain.EntityBundle{
		Entity: domain.Entity{
			ID:        p.ID,
			Name:      p.Name,
			Birthdate: p.Birthday,
			Breed:     p.Breed,
			Weight:    p.Weight,
			AvatarRef: deref(p.Avatar),
			MarkRefA:  deref(p.PawPrint),
			MarkRefB:  deref(p.NosePrint),
		},
		ServiceRecords: make([]domain.ServiceRecord, 0, len(lb.Grooming)),
		DiaryEntries:   make([]domain.DiaryEntry, 0, len(lb.Foster)),
		Milestones:     lb.Milestones,
		WeightSamples:  make([]domain.WeightSample, 0, len(lb.WeightHistory)),
	}
	if b.Milestones == nil {
		b.Milestones = []domain.Milestone{}
	}

	for _, t := range p.Tags {
		b.Entity.Tags = append(b.Entity.Tags, domain.Tag{ID: t.ID, Label: t.Label, Icon: t.Icon, ColorClass: t.Color})
	}
	for _, g := range lb.Grooming {
		b.ServiceRecords = append(b.ServiceRecords, domain.ServiceRecord{
			ID: g.ID, Name: g.ServiceName, Date: g.Date, PhotoRefs: g.Photos, Note: g.Advice, CategoryTags: g.Tags,
		})
	}
	for _, f := range lb.Foster {
		b.DiaryEntries = append(b.DiaryEntries, domain.DiaryEntry{
			ID: f.ID, DateRange: f.DateRange, DurationLabel: f.Duration, Mood: f.Mood, Content: f.Content, PhotoRefs: f.Photos,
		})
	}
	for _, w := range lb.WeightHistory {
		b.WeightSamples = append(b.WeightSamples, domain.WeightSample{MonthKey: w.Date, Value: w.Value})
	}
	// A missing coupons list stays nil so the v1 migration can seed it.
	if lb.Coupons != nil {
		b.Vouchers = make([]domain.Voucher, 0, len(lb.Coupons))
		for _, c := range lb.Coupons {
			b.Vouchers = append(b.Vouchers, domain.Voucher{
				ID: c.ID, Kind: c.Type, Title: c.Title, Subtitle: c.Subtitle, ValidityLabel: c.ValidDate,
				Code: c.Code, ColorFrom: c.ColorFrom, ColorTo: c.ColorTo, Status: c.Status, IconRef: c.IconName,
			})
		}
	}
	return b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
