// internal/domain/models/task.go

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is a work item created for reviewers when a stage reaches a state
// that needs a human decision.
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Task        string             `bson:"task" json:"task"`
	TaskType    string             `bson:"task_type" json:"task_type"`
	Entity      primitive.ObjectID `bson:"entity_ref" json:"entity_ref"`
	EntityType  string             `bson:"entity_type" json:"entity_type"`
	CreatedBy   primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	User        primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Branch      primitive.ObjectID `bson:"branch,omitempty" json:"branch,omitempty"`
	Comment     string             `bson:"comment,omitempty" json:"comment,omitempty"`
	Status      string             `bson:"status" json:"status"`
	DateCreated time.Time          `bson:"date_created" json:"date_created"`
}

// Task types.
const (
	TaskApprove = "approve"
	TaskReview  = "review"
)

// Notification is a message pushed to a user alongside a task.
type Notification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Message     string             `bson:"message" json:"message"`
	Type        string             `bson:"notification_type" json:"notification_type"`
	Entity      primitive.ObjectID `bson:"entity_ref" json:"entity_ref"`
	EntityType  string             `bson:"entity_type" json:"entity_type"`
	User        primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	TaskRef     primitive.ObjectID `bson:"task_ref,omitempty" json:"task_ref,omitempty"`
	Status      string             `bson:"status" json:"status"`
	DateCreated time.Time          `bson:"date_created" json:"date_created"`
}
