package repository

import (
	"strings"

	"github.com/google/uuid"
)

// ProfileFields carries the descriptive fields of an upsert. A nil pointer
// means the field was not supplied and keeps its stored value. Status flags
// are always written.
type ProfileFields struct {
	DisplayName       *string
	Bio               *string
	Languages         *[]string
	Expertise         *[]string
	PerMinuteCallRate *float64
	PerMinuteChatRate *float64
	IsOnline          bool
	IsBusy            bool
}

// ProfileUpsert keys an upsert by owning account. DefaultDisplayName is used
// only when the row is created and Fields.DisplayName is nil.
type ProfileUpsert struct {
	AccountID          uuid.UUID
	DefaultDisplayName string
	Fields             ProfileFields
}

// StatusUpdate writes only the non-nil flags. With RejectBusyOffline set, an
// update that would leave the row busy and offline fails with
// ErrBusyWhileOffline and changes nothing.
type StatusUpdate struct {
	IsOnline          *bool
	IsBusy            *bool
	RejectBusyOffline bool
}

type SortOrder string

const (
	SortCreated  SortOrder = "created"
	SortRating   SortOrder = "rating"
	SortCallRate SortOrder = "call_rate"
	SortChatRate SortOrder = "chat_rate"
)

func ParseSortOrder(value string) (SortOrder, bool) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(value))) {
	case "", SortCreated:
		return SortCreated, true
	case SortRating:
		return SortRating, true
	case SortCallRate:
		return SortCallRate, true
	case SortChatRate:
		return SortChatRate, true
	}
	return "", false
}

type SearchFilter struct {
	IncludeOffline bool
	Query          string
	Sort           SortOrder
	Limit          int
	Offset         int
}
