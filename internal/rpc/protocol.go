// Package rpc carries the task service over HTTP. Each operation is a
// POST to /rpc/{operation} with a JSON argument object, answered with a
// result envelope.
package rpc

type addTaskRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

type addCategoryRequest struct {
	Name string `json:"name"`
}

type idRequest struct {
	ID *int64 `json:"id" validate:"required"`
}

type emptyRequest struct{}
