package attendance

import (
	"sort"
	"time"
)

type PersonType string

const (
	PersonDoctor   PersonType = "doctor"
	PersonEmployee PersonType = "employee"
)

type RecordType string

const (
	CheckIn  RecordType = "check-in"
	CheckOut RecordType = "check-out"
)

func (t RecordType) Valid() bool {
	return t == CheckIn || t == CheckOut
}

// Record is one check-in or check-out event. At most one record may exist
// per (person, date, shift, type).
type Record struct {
	ID         string     `gorm:"column:record_id;primaryKey" json:"id"`
	PersonID   string     `gorm:"column:person_id;index:idx_person_day;not null" json:"person_id"`
	PersonType PersonType `gorm:"column:person_type;index;not null" json:"person_type"`
	Name       string     `gorm:"column:name;not null" json:"name"`
	Shift      string     `gorm:"column:shift;index:idx_person_day" json:"shift"`
	Type       RecordType `gorm:"column:type;index:idx_person_day;not null" json:"type"`
	Date       string     `gorm:"column:date;index:idx_person_day;not null" json:"date"`
	Time       string     `gorm:"column:time;not null" json:"time"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// PresenceStatus is the derived presence of one (person, shift) on a day.
type PresenceStatus struct {
	PersonID string     `json:"person_id"`
	Name     string     `json:"name"`
	Shift    string     `json:"shift"`
	Present  bool       `json:"present"`
	LastType RecordType `json:"last_type"`
	LastTime string     `json:"last_time"`
}

type presenceKey struct {
	personID string
	shift    string
}

// DerivePresence groups records by (person, shift), sorts each group by
// time and reports a person present iff the latest record is a check-in.
// Records are expected to share one date; the caller filters by day.
func DerivePresence(records []Record) []PresenceStatus {
	groups := make(map[presenceKey][]Record)
	order := make([]presenceKey, 0)

	for _, r := range records {
		key := presenceKey{personID: r.PersonID, shift: r.Shift}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	statuses := make([]PresenceStatus, 0, len(order))
	for _, key := range order {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Time < group[j].Time
		})

		latest := group[len(group)-1]
		statuses = append(statuses, PresenceStatus{
			PersonID: latest.PersonID,
			Name:     latest.Name,
			Shift:    latest.Shift,
			Present:  latest.Type == CheckIn,
			LastType: latest.Type,
			LastTime: latest.Time,
		})
	}

	return statuses
}
