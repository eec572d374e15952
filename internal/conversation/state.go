package conversation

import (
	"maps"
	"strconv"
	"strings"

	"bulletin/internal/models"
)

// Flow names a multi-step dialog.
type Flow string

const (
	FlowRegistration Flow = "registration"
	FlowNewPost      Flow = "new_post"
	FlowNewComment   Flow = "new_comment"
	FlowSupportReply Flow = "support_reply"
)

// Step is the question a flow is waiting to have answered.
type Step string

const (
	StepLastName    Step = "last_name"
	StepFirstName   Step = "first_name"
	StepMiddleName  Step = "middle_name"
	StepClass       Step = "class"
	StepUsername    Step = "username"
	StepPostText    Step = "post_text"
	StepPostID      Step = "post_id"
	StepCommentText Step = "comment_text"
	StepReplyText   Step = "reply_text"
)

// Field keys of collected answers.
const (
	FieldLastName   = "last_name"
	FieldFirstName  = "first_name"
	FieldMiddleName = "middle_name"
	FieldClass      = "class"
	FieldUsername   = "username"
	FieldText       = "text"
	FieldPostID     = "post_id"
	FieldRecipient  = "recipient"
)

// MiddleNamePlaceholder is typed by users without a middle name.
const MiddleNamePlaceholder = "-"

type stepSpec struct {
	step  Step
	field string
}

var flowSteps = map[Flow][]stepSpec{
	FlowRegistration: {
		{StepLastName, FieldLastName},
		{StepFirstName, FieldFirstName},
		{StepMiddleName, FieldMiddleName},
		{StepClass, FieldClass},
		{StepUsername, FieldUsername},
	},
	FlowNewPost:      {{StepPostText, FieldText}},
	FlowNewComment:   {{StepPostID, FieldPostID}, {StepCommentText, FieldText}},
	FlowSupportReply: {{StepReplyText, FieldText}},
}

// Valid reports whether f is a known flow.
func (f Flow) Valid() bool {
	_, ok := flowSteps[f]
	return ok
}

// State is one user's open dialog.
type State struct {
	UserID int64
	Flow   Flow
	Step   Step
	Fields map[string]string
}

func (s State) clone() State {
	s.Fields = maps.Clone(s.Fields)
	return s
}

// nextStep returns the first step of the flow whose field is not yet filled.
func nextStep(flow Flow, fields map[string]string) (stepSpec, bool) {
	for _, spec := range flowSteps[flow] {
		if _, done := fields[spec.field]; !done {
			return spec, true
		}
	}
	return stepSpec{}, false
}

func fieldFor(flow Flow, step Step) string {
	for _, spec := range flowSteps[flow] {
		if spec.step == step {
			return spec.field
		}
	}
	return ""
}

func capture(step Step, input string) string {
	if step == StepMiddleName && strings.TrimSpace(input) == MiddleNamePlaceholder {
		return ""
	}
	return input
}

// Candidate converts a finished registration dialog.
func (s State) Candidate() models.RegistrationCandidate {
	return models.RegistrationCandidate{
		UserID:     s.UserID,
		LastName:   s.Fields[FieldLastName],
		FirstName:  s.Fields[FieldFirstName],
		MiddleName: s.Fields[FieldMiddleName],
		ClassLabel: s.Fields[FieldClass],
		Username:   s.Fields[FieldUsername],
	}
}

// PostID parses the stored post id. It is only checked at commit time.
func (s State) PostID() (int, error) {
	raw := strings.TrimSpace(s.Fields[FieldPostID])
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewInvalidPostIDError(raw)
	}
	return id, nil
}

// Recipient is the user a support reply goes to.
func (s State) Recipient() int64 {
	id, _ := strconv.ParseInt(s.Fields[FieldRecipient], 10, 64)
	return id
}

// Text is the free-text answer of post, comment and reply flows.
func (s State) Text() string {
	return s.Fields[FieldText]
}
