package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type Aggregate string

const (
	AggregateUser       Aggregate = "user"
	AggregateEmployee   Aggregate = "employee"
	AggregateDepartment Aggregate = "department"
)

const (
	EventTypeUserCreated       = "USER_CREATED"
	EventTypeUserUpdated       = "USER_UPDATED"
	EventTypeEmployeeCreated   = "EMPLOYEE_CREATED"
	EventTypeEmployeeUpdated   = "EMPLOYEE_UPDATED"
	EventTypeEmployeeDeleted   = "EMPLOYEE_DELETED"
	EventTypeDepartmentCreated = "DEPARTMENT_CREATED"
	EventTypeDepartmentUpdated = "DEPARTMENT_UPDATED"
	EventTypeDepartmentDeleted = "DEPARTMENT_DELETED"
)

// AllEventTypes is the closed set of entity event types.
var AllEventTypes = []string{
	EventTypeUserCreated,
	EventTypeUserUpdated,
	EventTypeEmployeeCreated,
	EventTypeEmployeeUpdated,
	EventTypeEmployeeDeleted,
	EventTypeDepartmentCreated,
	EventTypeDepartmentUpdated,
	EventTypeDepartmentDeleted,
}

var ErrMalformedEvent = errors.New("malformed event")

// EntityEvent is a mutation notification for one aggregate instance.
// On the wire it is a flat JSON object: eventType, the entity fields, and timestamp in epoch millis.
type EntityEvent struct {
	BaseEvent
	Aggregate Aggregate
	Key       string
}

func newEntityEvent(eventType string, aggregate Aggregate, id int64, data map[string]interface{}) *EntityEvent {
	return &EntityEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		Aggregate: aggregate,
		Key:       strconv.FormatInt(id, 10),
	}
}

func NewEmployeeEvent(eventType string, id int64, email, firstName, lastName, status string) *EntityEvent {
	return newEntityEvent(eventType, AggregateEmployee, id, map[string]interface{}{
		"employeeId": id,
		"email":      email,
		"firstName":  firstName,
		"lastName":   lastName,
		"status":     status,
	})
}

func NewEmployeeDeletedEvent(id int64) *EntityEvent {
	return newEntityEvent(EventTypeEmployeeDeleted, AggregateEmployee, id, map[string]interface{}{
		"employeeId": id,
	})
}

func NewDepartmentEvent(eventType string, id int64, name, description string) *EntityEvent {
	return newEntityEvent(eventType, AggregateDepartment, id, map[string]interface{}{
		"departmentId": id,
		"name":         name,
		"description":  description,
	})
}

func NewDepartmentDeletedEvent(id int64) *EntityEvent {
	return newEntityEvent(EventTypeDepartmentDeleted, AggregateDepartment, id, map[string]interface{}{
		"departmentId": id,
	})
}

func NewUserEvent(eventType string, id int64, email, firstName, lastName string) *EntityEvent {
	return newEntityEvent(eventType, AggregateUser, id, map[string]interface{}{
		"userId":    id,
		"email":     email,
		"firstName": firstName,
		"lastName":  lastName,
	})
}

// AggregateOf maps an event type to the aggregate whose topic carries it.
func AggregateOf(eventType string) (Aggregate, bool) {
	switch eventType {
	case EventTypeUserCreated, EventTypeUserUpdated:
		return AggregateUser, true
	case EventTypeEmployeeCreated, EventTypeEmployeeUpdated, EventTypeEmployeeDeleted:
		return AggregateEmployee, true
	case EventTypeDepartmentCreated, EventTypeDepartmentUpdated, EventTypeDepartmentDeleted:
		return AggregateDepartment, true
	}
	return "", false
}

func (e *EntityEvent) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(e.Data)+2)
	for k, v := range e.Data {
		flat[k] = v
	}
	flat["eventType"] = e.Type
	flat["timestamp"] = e.Timestamp.UnixMilli()
	return json.Marshal(flat)
}

// DecodeEntityEvent parses a flat record read from a topic. Numbers stay json.Number.
func DecodeEntityEvent(aggregate Aggregate, key, value []byte) (*EntityEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()

	var flat map[string]interface{}
	if err := dec.Decode(&flat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	eventType, _ := flat["eventType"].(string)
	if eventType == "" {
		return nil, fmt.Errorf("%w: missing eventType", ErrMalformedEvent)
	}
	delete(flat, "eventType")

	ts := time.Now()
	if raw, ok := flat["timestamp"].(json.Number); ok {
		millis, err := raw.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: timestamp: %v", ErrMalformedEvent, err)
		}
		ts = time.UnixMilli(millis)
	}
	delete(flat, "timestamp")

	return &EntityEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: ts,
			Data:      flat,
		},
		Aggregate: aggregate,
		Key:       string(key),
	}, nil
}
