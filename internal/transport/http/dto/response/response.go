package response

const (
	statusOK    = "success"
	statusError = "error"
)

type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse is written for requests the console cannot route or decode.
// Form validation failures are rendered into the panel instead.
type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ConsoleStatus is the payload of GET /admin/status.
type ConsoleStatus struct {
	Consoles int    `json:"consoles"`
	Site     string `json:"site"`
}

func SuccessResponse(data any) Response {
	return Response{
		Status: statusOK,
		Data:   data,
	}
}
