package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"produtivo/internal/core"
	plog "produtivo/internal/log"
)

type userRow struct {
	ID           string `gorm:"primaryKey"`
	Name         string
	Email        string `gorm:"uniqueIndex"`
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type listRow struct {
	ID      string `gorm:"primaryKey"`
	OwnerID string `gorm:"index"`
	Name    string
	Color   string
}

func (listRow) TableName() string { return "task_lists" }

type taskRow struct {
	ID          string `gorm:"primaryKey"`
	OwnerID     string `gorm:"index"`
	Title       string
	Description string
	Status      string `gorm:"index"`
	Priority    string
	ListID      string     `gorm:"index"`
	Tags        []string   `gorm:"serializer:json"`
	DueDate     *core.Date `gorm:"type:text"`
	CompletedAt *time.Time
	Link        string
	PhotoURLs   []string       `gorm:"serializer:json"`
	Subtasks    []core.Subtask `gorm:"serializer:json"`
	CreatedAt   time.Time      `gorm:"index"`
	UpdatedAt   time.Time
}

func (taskRow) TableName() string { return "tasks" }

func toUserRow(u core.User) userRow {
	return userRow(u)
}

func (r userRow) toCore() core.User {
	return core.User(r)
}

func toListRow(l core.TaskList) listRow {
	return listRow(l)
}

func (r listRow) toCore() core.TaskList {
	return core.TaskList(r)
}

func toTaskRow(t core.Task) taskRow {
	return taskRow{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		ListID:      t.ListID,
		Tags:        t.Tags,
		DueDate:     t.DueDate,
		CompletedAt: t.CompletedAt,
		Link:        t.Link,
		PhotoURLs:   t.PhotoURLs,
		Subtasks:    t.Subtasks,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r taskRow) toCore() core.Task {
	t := core.Task{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Description: r.Description,
		Status:      core.TaskStatus(r.Status),
		Priority:    core.Priority(r.Priority),
		ListID:      r.ListID,
		Tags:        r.Tags,
		DueDate:     r.DueDate,
		CompletedAt: r.CompletedAt,
		Link:        r.Link,
		PhotoURLs:   r.PhotoURLs,
		Subtasks:    r.Subtasks,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.PhotoURLs == nil {
		t.PhotoURLs = []string{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []core.Subtask{}
	}
	return t
}

// TaskStore keeps users, task lists and tasks in an SQLite file via gorm.
type TaskStore struct {
	db *gorm.DB
}

// OpenTaskStore opens (creating if needed) the database at dsn and
// migrates its schema.
func OpenTaskStore(dsn string, log *plog.Logger) (*TaskStore, error) {
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	level := logger.Warn
	if log == nil {
		level = logger.Silent
		log = plog.Discard()
	}
	dbLogger := logger.New(
		gormWriter{log.WithComponent(plog.ComponentStorage)},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         dbLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open tasks db: %w", err)
	}

	if err := db.AutoMigrate(&userRow{}, &listRow{}, &taskRow{}); err != nil {
		return nil, fmt.Errorf("migrate tasks db: %w", err)
	}
	return &TaskStore{db: db}, nil
}

// gormWriter routes gorm's printf-style logger into slog.
type gormWriter struct {
	log *plog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn(fmt.Sprintf(format, args...))
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

func (s *TaskStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *TaskStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error, what string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, core.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, core.ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Users

func (s *TaskStore) CreateUser(ctx context.Context, u *core.User) error {
	row := toUserRow(*u)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translate(err, "create user")
	}
	return nil
}

func (s *TaskStore) GetUserByID(ctx context.Context, id string) (core.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return core.User{}, translate(err, "get user")
	}
	return row.toCore(), nil
}

func (s *TaskStore) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		return core.User{}, translate(err, "get user by email")
	}
	return row.toCore(), nil
}

func (s *TaskStore) UpdateUser(ctx context.Context, u *core.User) error {
	row := toUserRow(*u)
	res := s.db.WithContext(ctx).Model(&userRow{ID: u.ID}).
		Select("name", "email", "password_hash", "updated_at").Updates(&row)
	if res.Error != nil {
		return translate(res.Error, "update user")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update user %s: %w", u.ID, core.ErrNotFound)
	}
	return nil
}

// Task lists

func (s *TaskStore) CreateList(ctx context.Context, l core.TaskList) error {
	row := toListRow(l)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translate(err, "create list")
	}
	return nil
}

func (s *TaskStore) ListLists(ctx context.Context, ownerID string) ([]core.TaskList, error) {
	var rows []listRow
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("name").Find(&rows).Error; err != nil {
		return nil, translate(err, "list lists")
	}
	out := make([]core.TaskList, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

// DeleteList removes the list and detaches its tasks in one transaction.
// Tasks are kept with an empty list id.
func (s *TaskStore) DeleteList(ctx context.Context, ownerID, listID string, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("owner_id = ? AND id = ?", ownerID, listID).Delete(&listRow{})
		if res.Error != nil {
			return translate(res.Error, "delete list")
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("list %s: %w", listID, core.ErrNotFound)
		}
		if err := tx.Model(&taskRow{}).
			Where("owner_id = ? AND list_id = ?", ownerID, listID).
			Updates(map[string]any{"list_id": "", "updated_at": now}).Error; err != nil {
			return translate(err, "orphan tasks")
		}
		return nil
	})
}

// Tasks

func (s *TaskStore) CreateTask(ctx context.Context, t core.Task) error {
	row := toTaskRow(t)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translate(err, "create task")
	}
	return nil
}

func (s *TaskStore) GetTask(ctx context.Context, id string) (core.Task, error) {
	var row taskRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return core.Task{}, translate(err, "get task")
	}
	return row.toCore(), nil
}

// SaveTask overwrites every column of an existing task.
func (s *TaskStore) SaveTask(ctx context.Context, t core.Task) error {
	row := toTaskRow(t)
	res := s.db.WithContext(ctx).Model(&taskRow{ID: t.ID}).Select("*").Omit("id", "created_at").Updates(&row)
	if res.Error != nil {
		return translate(res.Error, "save task")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", t.ID, core.ErrNotFound)
	}
	return nil
}

func (s *TaskStore) DeleteTask(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&taskRow{})
	if res.Error != nil {
		return translate(res.Error, "delete task")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// ListTasks returns the tasks of ownerID, newest first. An empty ownerID
// returns every task.
func (s *TaskStore) ListTasks(ctx context.Context, ownerID string) ([]core.Task, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id")
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	var rows []taskRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err, "list tasks")
	}
	out := make([]core.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}
