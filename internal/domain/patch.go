package domain

import "time"

// TaskPatch describes a partial update to a Task. Only non-nil fields are
// applied; absent fields retain their prior values in both stores. UpdatedAt
// is always set by the coordinator before the patch reaches a store.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Attachments *[]string
	DueDate     *time.Time
	UpdatedAt   time.Time
}

// IsEmpty reports whether the patch names no fields to change.
// A patch carrying only the recomputed UpdatedAt is considered empty.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Status == nil &&
		p.Attachments == nil &&
		p.DueDate == nil
}

// ApplyTo copies the patch's set fields onto the given task, including the
// recomputed UpdatedAt. The task is modified in place.
func (p TaskPatch) ApplyTo(task *Task) {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.Attachments != nil {
		task.Attachments = *p.Attachments
	}
	if p.DueDate != nil {
		task.DueDate = p.DueDate
	}
	task.UpdatedAt = p.UpdatedAt
}

// Fields returns the names and new values of the fields the patch sets,
// using the same JSON field names the API exposes. This is the changed-field
// set carried by task_updated notifications.
func (p TaskPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Status != nil {
		fields["status"] = string(*p.Status)
	}
	if p.Attachments != nil {
		fields["attachments"] = *p.Attachments
	}
	if p.DueDate != nil {
		fields["dueDate"] = *p.DueDate
	}
	return fields
}
