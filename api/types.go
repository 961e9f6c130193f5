package api

// Stats is the cumulative result record a task carries on the coordinator.
type Stats struct {
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Draws       int    `json:"draws"`
	Crashes     int    `json:"crashes"`
	TimeLosses  int    `json:"time_losses"`
	Pentanomial [5]int `json:"pentanomial"`
}

// Games returns the number of individual games the record accounts for.
func (s Stats) Games() int {
	return s.Wins + s.Losses + s.Draws
}

// TaskResult is the body of an update_task request: credentials, task
// identity, and the merged statistics for the current invocation.
type TaskResult struct {
	Username   string           `json:"username"`
	Password   string           `json:"password"`
	RunID      string           `json:"run_id"`
	TaskID     int              `json:"task_id"`
	Stats      Stats            `json:"stats"`
	NPS        float64          `json:"nps,omitempty"`
	MaxMemory  uint64           `json:"max_memory,omitempty"`
	UniqueKey  string           `json:"unique_key,omitempty"`
	SPSA       *SPSAObservation `json:"spsa,omitempty"`
}

// SPSAObservation is the raw outcome of one short tuning batch.
type SPSAObservation struct {
	Wins     int `json:"wins"`
	Losses   int `json:"losses"`
	Draws    int `json:"draws"`
	NumGames int `json:"num_games"`
}

// SPSAParam is a single perturbed tuning parameter for one side.
type SPSAParam struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// SPSAParams holds the parameter sets for the new (white) and base (black)
// sides of one tuning batch.
type SPSAParams struct {
	WParams []SPSAParam `json:"w_params"`
	BParams []SPSAParam `json:"b_params"`
}

// TaskStatus is the coordinator's answer to an update: whether the task is
// still wanted.
type TaskStatus struct {
	TaskAlive bool `json:"task_alive"`
}

// Run is the immutable description of the test run a task belongs to, as
// fetched from the coordinator by the bootstrap layer.
type Run struct {
	ID   string  `json:"run_id"`
	Args RunArgs `json:"args"`
	Task Task    `json:"my_task"`
}

// RunArgs are the match parameters shared by every task of a run.
type RunArgs struct {
	TC            string `json:"tc"`
	Book          string `json:"book"`
	BookDepth     int    `json:"book_depth"`
	Threads       int    `json:"threads"`
	NewTag        string `json:"new_tag"`
	BaseTag       string `json:"base_tag"`
	NewOptions    string `json:"new_options"`
	BaseOptions   string `json:"base_options"`
	ResolvedNew   string `json:"resolved_new"`
	ResolvedBase  string `json:"resolved_base"`
	NewSignature  int64  `json:"new_signature"`
	BaseSignature int64  `json:"base_signature"`
	SPSA          bool   `json:"spsa,omitempty"`
}

// Task is the worker's slice of a run. Stats is the baseline for the
// current invocation: whatever was already played and reported before.
type Task struct {
	NumGames int   `json:"num_games"`
	Stats    Stats `json:"stats"`
}
