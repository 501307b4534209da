package domain

import "strings"

type Mood string

const (
	MoodHappy  Mood = "happy"
	MoodLove   Mood = "love"
	MoodCool   Mood = "cool"
	MoodSad    Mood = "sad"
	MoodNormal Mood = "normal"
)

func (m Mood) Valid() bool {
	switch m {
	case MoodHappy, MoodLove, MoodCool, MoodSad, MoodNormal:
		return true
	}
	return false
}

type MilestoneType string

const (
	MilestoneBath    MilestoneType = "bath"
	MilestoneHome    MilestoneType = "home"
	MilestoneCake    MilestoneType = "cake"
	MilestoneAward   MilestoneType = "award"
	MilestoneVaccine MilestoneType = "vaccine"
)

func (t MilestoneType) Valid() bool {
	switch t {
	case MilestoneBath, MilestoneHome, MilestoneCake, MilestoneAward, MilestoneVaccine:
		return true
	}
	return false
}

// VoucherStatus only ever moves from active to used.
type VoucherStatus string

const (
	VoucherActive VoucherStatus = "active"
	VoucherUsed   VoucherStatus = "used"
)

func (s VoucherStatus) Valid() bool {
	return s == VoucherActive || s == VoucherUsed
}

type Tag struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Icon       string `json:"icon"`
	ColorClass string `json:"colorClass"`
}

// Entity is the profile of one tracked pet. Image fields hold either a remote
// URL or a data: URL; an empty string means no image.
type Entity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Birthdate string `json:"birthdate"`
	Breed     string `json:"breed"`
	Weight    string `json:"weight"`
	AvatarRef string `json:"avatarRef"`
	MarkRefA  string `json:"markRefA"` // paw print
	MarkRefB  string `json:"markRefB"` // nose print
	Tags      []Tag  `json:"tags"`
}

type ServiceRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Date         string   `json:"date"`
	PhotoRefs    []string `json:"photoRefs"`
	Note         string   `json:"note"`
	CategoryTags []string `json:"categoryTags"`
}

type DiaryEntry struct {
	ID            string   `json:"id"`
	DateRange     string   `json:"dateRange"`
	DurationLabel string   `json:"durationLabel"`
	Mood          Mood     `json:"mood"`
	Content       string   `json:"content"`
	PhotoRefs     []string `json:"photoRefs"`
}

type Milestone struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Date      string        `json:"date"`
	Completed bool          `json:"completed"`
	Type      MilestoneType `json:"type"`
}

// WeightSample is keyed by calendar month (YYYY-MM).
type WeightSample struct {
	MonthKey string  `json:"monthKey"`
	Value    float64 `json:"value"`
}

type Voucher struct {
	ID            string        `json:"id"`
	Kind          string        `json:"kind"`
	Title         string        `json:"title"`
	Subtitle      string        `json:"subtitle"`
	ValidityLabel string        `json:"validityLabel"`
	Code          string        `json:"code"`
	ColorFrom     string        `json:"colorFrom"`
	ColorTo       string        `json:"colorTo"`
	Status        VoucherStatus `json:"status"`
	IconRef       string        `json:"iconRef"`
}

// EntityBundle owns everything recorded for one entity. It is the unit of
// storage and of remote sync.
type EntityBundle struct {
	Entity         Entity          `json:"entity"`
	ServiceRecords []ServiceRecord `json:"serviceRecords"`
	DiaryEntries   []DiaryEntry    `json:"diaryEntries"`
	Milestones     []Milestone     `json:"milestones"`
	WeightSamples  []WeightSample  `json:"weightSamples"`
	Vouchers       []Voucher       `json:"vouchers"`
}

// RemoteConfig holds object storage credentials. Remote operations are only
// attempted when every field is set.
type RemoteConfig struct {
	AccessID     string `json:"accessId" yaml:"access_id"`
	AccessSecret string `json:"accessSecret" yaml:"access_secret"`
	BucketName   string `json:"bucketName" yaml:"bucket_name"`
	Region       string `json:"region" yaml:"region"`
}

func (c RemoteConfig) Complete() bool {
	return strings.TrimSpace(c.AccessID) != "" &&
		strings.TrimSpace(c.AccessSecret) != "" &&
		strings.TrimSpace(c.BucketName) != "" &&
		strings.TrimSpace(c.Region) != ""
}

// ProfileUpdate is a partial profile. Nil fields are left untouched; non-nil
// fields replace the current value (Tags replaces the whole list).
type ProfileUpdate struct {
	Name      *string `json:"name,omitempty"`
	Birthdate *string `json:"birthdate,omitempty"`
	Breed     *string `json:"breed,omitempty"`
	Weight    *string `json:"weight,omitempty"`
	AvatarRef *string `json:"avatarRef,omitempty"`
	MarkRefA  *string `json:"markRefA,omitempty"`
	MarkRefB  *string `json:"markRefB,omitempty"`
	Tags      *[]Tag  `json:"tags,omitempty"`
}

// Apply shallow-merges u into e.
func (u ProfileUpdate) Apply(e *Entity) {
	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.Birthdate != nil {
		e.Birthdate = *u.Birthdate
	}
	if u.Breed != nil {
		e.Breed = *u.Breed
	}
	if u.Weight != nil {
		e.Weight = *u.Weight
	}
	if u.AvatarRef != nil {
		e.AvatarRef = *u.AvatarRef
	}
	if u.MarkRefA != nil {
		e.MarkRefA = *u.MarkRefA
	}
	if u.MarkRefB != nil {
		e.MarkRefB = *u.MarkRefB
	}
	if u.Tags != nil {
		e.Tags = append([]Tag(nil), (*u.Tags)...)
	}
}
