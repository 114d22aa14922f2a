package models

// ErrorResponse defines API error response format
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// HealthResponse 健康检查响应结构
type HealthResponse struct {
	Version   string `json:"version"`
	StartTime string `json:"startTime"`
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Requests  int64  `json:"totalRequests"`
	Errors    int64  `json:"errorRequests"`
}
