package remote

// Operation names, shared by the wire protocol, logs and metrics
const (
	OpAddTask        = "addTask"
	OpAddCategory    = "addCategory"
	OpCompleteTask   = "completeTask"
	OpDeleteTask     = "deleteTask"
	OpDeleteCategory = "deleteCategory"
	OpGetTasks       = "getTasks"
	OpGetCategories  = "getCategories"
	OpHealthCheck    = "healthCheck"
)
