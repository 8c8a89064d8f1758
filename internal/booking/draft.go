// Package booking packages a slot selection and the contact form into the
// draft handed to the booking backend.
package booking

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"equipment-booking-backend/internal/parse"
	"equipment-booking-backend/internal/selection"
)

// ErrEmptySelection is returned when a draft is requested with no slots.
var ErrEmptySelection = errors.New("at least one slot must be selected")

// Status is the lifecycle state reported to the backend.
type Status string

const StatusPending Status = "PENDING"

// DefaultExtraTimeQuestionID identifies the "extra setup time" question.
const DefaultExtraTimeQuestionID = 2

const (
	answerExtraTime   = "Yes, I need extra time for setup"
	answerNoExtraTime = "No extra time needed"
)

// Answer is a reply to one booking question.
type Answer struct {
	QuesID int    `json:"ques_id"`
	Answer string `json:"answer"`
}

// Draft is the booking request sent to the backend. It is built once per
// submission and not modified afterwards.
type Draft struct {
	StudentID      int64            `json:"studentId"`
	MachineID      int64            `json:"machineId"`
	Status         Status           `json:"status"`
	AmountToBePaid string           `json:"amountToBePaid"`
	Remarks        string           `json:"remarks"`
	StartAt        string           `json:"startAt"`
	EndAt          string           `json:"endAt"`
	CreatedAt      string           `json:"createdAt"`
	Slots          []selection.Slot `json:"slots"`
	Answers        []Answer         `json:"answers"`
}

// DraftInput collects everything BuildDraft needs.
type DraftInput struct {
	StudentID           int64
	MachineID           int64
	PerSlotCost         decimal.Decimal
	Selection           selection.Set
	Form                ContactForm
	ExtraTimeQuestionID int
	Now                 time.Time
}

// BuildDraft validates the input and assembles a PENDING draft. Slots are
// sorted by (date, opening time); StartAt and EndAt span the first and last
// sorted slot even when the selection has gaps.
func BuildDraft(in DraftInput) (Draft, error) {
	if in.Selection.Len() == 0 {
		return Draft{}, ErrEmptySelection
	}
	if err := in.Form.Validate(); err != nil {
		return Draft{}, err
	}
	form := in.Form.Normalize()

	sorted := in.Selection.Sorted()
	startAt, endAt, _ := selection.Span(sorted)

	questionID := in.ExtraTimeQuestionID
	if questionID == 0 {
		questionID = DefaultExtraTimeQuestionID
	}
	answer := answerNoExtraTime
	if form.ExtraTimeNeeded == "yes" {
		answer = answerExtraTime
	}

	return Draft{
		StudentID:      in.StudentID,
		MachineID:      in.MachineID,
		Status:         StatusPending,
		AmountToBePaid: selection.FormatAmount(selection.TotalCost(in.Selection, in.PerSlotCost)),
		Remarks:        form.Remarks,
		StartAt:        startAt,
		EndAt:          endAt,
		CreatedAt:      in.Now.UTC().Format(parse.StampLayout),
		Slots:          sorted,
		Answers:        []Answer{{QuesID: questionID, Answer: answer}},
	}, nil
}
