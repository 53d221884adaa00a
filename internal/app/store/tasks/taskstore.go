// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AbnetS/bidir-group/internal/domain/models"
)

// Store writes review/approval tasks and their notifications.
type Store struct {
	tasks         *mongo.Collection
	notifications *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		tasks:         db.Collection("tasks"),
		notifications: db.Collection("notifications"),
	}
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	task.ID = primitive.NewObjectID()
	if task.Status == "" {
		task.Status = "pending"
	}
	task.DateCreated = time.Now().UTC()
	if _, err := s.tasks.InsertOne(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) Notify(ctx context.Context, note *models.Notification) (*models.Notification, error) {
	note.ID = primitive.NewObjectID()
	if note.Status == "" {
		note.Status = "unread"
	}
	note.DateCreated = time.Now().UTC()
	if _, err := s.notifications.InsertOne(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}
