package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaxActivities is the number of entries the activity feed retains.
const MaxActivities = 100

type ActivityType string

const (
	ActivityComment         ActivityType = "comment"
	ActivityCompleted       ActivityType = "completed"
	ActivityPendingApproval ActivityType = "pending_approval"
	ActivityApproved        ActivityType = "approved"
	ActivityRejected        ActivityType = "rejected"
	ActivityUpForGrabs      ActivityType = "up_for_grabs"
	ActivityClaimed         ActivityType = "claimed"
	ActivitySwapCancelled   ActivityType = "swap_cancelled"
)

// ChoreRef identifies the chore an activity is about. The name is a snapshot
// taken when the activity was recorded.
type ChoreRef struct {
	ChoreID   string `json:"choreId"`
	ChoreName string `json:"choreName"`
}

func (r ChoreRef) Ref() ChoreRef { return r }

// ActivityData is the type-specific payload of an Activity. Each variant
// carries exactly the fields its type needs.
type ActivityData interface {
	Type() ActivityType
	Ref() ChoreRef
}

type CommentActivity struct {
	ChoreRef
	CommentID string `json:"commentId"`
}

type CompletedActivity struct {
	ChoreRef
}

type PendingApprovalActivity struct {
	ChoreRef
}

type ApprovedActivity struct {
	ChoreRef
	CompletedBy string `json:"completedBy"`
}

type RejectedActivity struct {
	ChoreRef
	CompletedBy string `json:"completedBy"`
}

type UpForGrabsActivity struct {
	ChoreRef
}

type ClaimedActivity struct {
	ChoreRef
	OfferedBy string `json:"offeredBy"`
}

type SwapCancelledActivity struct {
	ChoreRef
}

func (CommentActivity) Type() ActivityType         { return ActivityComment }
func (CompletedActivity) Type() ActivityType       { return ActivityCompleted }
func (PendingApprovalActivity) Type() ActivityType { return ActivityPendingApproval }
func (ApprovedActivity) Type() ActivityType        { return ActivityApproved }
func (RejectedActivity) Type() ActivityType        { return ActivityRejected }
func (UpForGrabsActivity) Type() ActivityType      { return ActivityUpForGrabs }
func (ClaimedActivity) Type() ActivityType         { return ActivityClaimed }
func (SwapCancelledActivity) Type() ActivityType   { return ActivitySwapCancelled }

// Activity is an immutable feed entry.
type Activity struct {
	ID         string
	Type       ActivityType
	UserID     string
	UserName   string
	UserAvatar string
	Data       ActivityData
	Timestamp  time.Time
}

type activityJSON struct {
	ID         string          `json:"id"`
	Type       ActivityType    `json:"type"`
	UserID     string          `json:"userId"`
	UserName   string          `json:"userName"`
	UserAvatar string          `json:"userAvatar"`
	Data       json.RawMessage `json:"data"`
	Timestamp  time.Time       `json:"timestamp"`
}

func (a Activity) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(a.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal activity data: %w", err)
	}
	return json.Marshal(activityJSON{
		ID:         a.ID,
		Type:       a.Type,
		UserID:     a.UserID,
		UserName:   a.UserName,
		UserAvatar: a.UserAvatar,
		Data:       data,
		Timestamp:  a.Timestamp,
	})
}

func (a *Activity) UnmarshalJSON(b []byte) error {
	var raw activityJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data, err := DecodeActivityData(raw.Type, raw.Data)
	if err != nil {
		return err
	}
	*a = Activity{
		ID:         raw.ID,
		Type:       raw.Type,
		UserID:     raw.UserID,
		UserName:   raw.UserName,
		UserAvatar: raw.UserAvatar,
		Data:       data,
		Timestamp:  raw.Timestamp,
	}
	return nil
}

// DecodeActivityData decodes a JSON payload into the variant selected by t.
func DecodeActivityData(t ActivityType, raw []byte) (ActivityData, error) {
	var (
		data ActivityData
		err  error
	)
	switch t {
	case ActivityComment:
		var v CommentActivity
		err = json.Unmarshal(raw, &v)
		data = v
	case ActivityCompleted:
		var v CompletedActivity
		err = json.Unmarshal(raw, &v)
		data = v
	case ActivityPendingApproval:
		var v PendingApprovalActivity
		err = json.Unmarshal(raw, &v)
		data = v
	case ActivityApproved:
		var v ApprovedActivity
		err = json.Unmarshal(raw, &v)
		data = v
	case ActivityRejected:
		var v RejectedActivity
		err = json.Unmarshal(raw, &v)
		data = v
	case ActivityUpForGrabs:
		var v UpForGrabsActivity
		err = json.Unmarshal(raw, &v)
		data = v
	case ActivityClaimed:
		var v ClaimedActivity
		err = json.Unmarshal(raw, &v)
		data = v
	case ActivitySwapCancelled:
		var v SwapCancelledActivity
		err = json.Unmarshal(raw, &v)
		data = v
	default:
		return nil, fmt.Errorf("unknown activity type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s activity: %w", t, err)
	}
	return data, nil
}
