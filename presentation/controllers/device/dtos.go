package device

type RegisterDeviceRequest struct {
	Token string `json:"token" binding:"required,max=4096"`
	Type  string `json:"type" binding:"required,oneof=android ios web"`
}

type UnregisterDeviceRequest struct {
	Token string `json:"token" binding:"required"`
}

type StatusResponse struct {
	Status bool   `json:"status"`
	Error  string `json:"error,omitempty"`
}
