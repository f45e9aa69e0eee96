package device

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/trio/application/usecases/device"
	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/presentation/middlewares"
)

type DeviceController interface {
	Register(ctx *gin.Context)
	Unregister(ctx *gin.Context)
}

type deviceController struct {
	usecase device.DeviceUseCase
}

func NewDeviceController(usecase device.DeviceUseCase) DeviceController {
	return &deviceController{usecase: usecase}
}

func (c *deviceController) Register(ctx *gin.Context) {
	user, ok := middlewares.GetUserFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, StatusResponse{Error: "user identity required"})
		return
	}

	var req RegisterDeviceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, StatusResponse{Error: middlewares.TranslateValidationError(err)})
		return
	}

	if _, err := c.usecase.Register(ctx.Request.Context(), user.ID, req.Token, req.Type); err != nil {
		ctx.JSON(statusFor(err), StatusResponse{Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, StatusResponse{Status: true})
}

func (c *deviceController) Unregister(ctx *gin.Context) {
	var req UnregisterDeviceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, StatusResponse{Error: middlewares.TranslateValidationError(err)})
		return
	}

	if err := c.usecase.Unregister(ctx.Request.Context(), req.Token); err != nil {
		ctx.JSON(statusFor(err), StatusResponse{Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, StatusResponse{Status: true})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrTokenNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidPlatform), errors.Is(err, model.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
