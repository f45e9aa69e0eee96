package room

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/trio/application/usecases/match"
	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/infrastructure/logger"
	"github.com/hilthontt/trio/presentation/middlewares"
	"go.uber.org/zap"
)

const defaultListLimit = 50

type RoomController interface {
	JoinAny(ctx *gin.Context)
	CreateRoom(ctx *gin.Context)
	ListRooms(ctx *gin.Context)
	GetRoom(ctx *gin.Context)
	JoinRoom(ctx *gin.Context)
	LeaveRoom(ctx *gin.Context)
	QueueStatus(ctx *gin.Context)
	Withdraw(ctx *gin.Context)
}

type roomController struct {
	usecase match.MatchUseCase
	logger  *logger.Logger
}

func NewRoomController(usecase match.MatchUseCase, logger *logger.Logger) RoomController {
	return &roomController{
		usecase: usecase,
		logger:  logger,
	}
}

func (c *roomController) JoinAny(ctx *gin.Context) {
	user, ok := c.requireUser(ctx)
	if !ok {
		return
	}

	decision, err := c.usecase.JoinAny(ctx.Request.Context(), user.ID)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toJoinAnyResponse(decision))
}

func (c *roomController) CreateRoom(ctx *gin.Context) {
	user, ok := c.requireUser(ctx)
	if !ok {
		return
	}

	var req CreateRoomRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: middlewares.TranslateValidationError(err),
			})
			return
		}
	}

	room, err := c.usecase.Create(ctx.Request.Context(), user.ID, req.Title)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, toRoomResponse(room))
}

func (c *roomController) ListRooms(ctx *gin.Context) {
	var query ListRoomsQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: middlewares.TranslateValidationError(err),
		})
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultListLimit
	}

	rooms, err := c.usecase.List(ctx.Request.Context(), query.Limit)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	out := make([]*RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomResponse(r))
	}
	ctx.JSON(http.StatusOK, out)
}

func (c *roomController) GetRoom(ctx *gin.Context) {
	room, err := c.usecase.GetByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toRoomResponse(room))
}

func (c *roomController) JoinRoom(ctx *gin.Context) {
	user, ok := c.requireUser(ctx)
	if !ok {
		return
	}

	room, err := c.usecase.Join(ctx.Request.Context(), ctx.Param("id"), user.ID)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toRoomResponse(room))
}

func (c *roomController) LeaveRoom(ctx *gin.Context) {
	user, ok := c.requireUser(ctx)
	if !ok {
		return
	}

	room, err := c.usecase.Leave(ctx.Request.Context(), ctx.Param("id"), user.ID)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toRoomResponse(room))
}

func (c *roomController) QueueStatus(ctx *gin.Context) {
	user, ok := c.requireUser(ctx)
	if !ok {
		return
	}

	status, err := c.usecase.QueueStatus(ctx.Request.Context(), user.ID)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, QueueStatusResponse{Size: status.Size, Queued: status.Queued})
}

func (c *roomController) Withdraw(ctx *gin.Context) {
	user, ok := c.requireUser(ctx)
	if !ok {
		return
	}

	if err := c.usecase.Withdraw(ctx.Request.Context(), user.ID); err != nil {
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, SuccessResponse{Message: "withdrawn from queue"})
}

func (c *roomController) requireUser(ctx *gin.Context) (*model.User, bool) {
	user, ok := middlewares.GetUserFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "user identity required",
		})
		return nil, false
	}
	return user, true
}

func (c *roomController) writeError(ctx *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		ctx.Error(err)
		c.logger.Error("room request failed", zap.Error(err), zap.String("path", ctx.FullPath()))
	}

	ctx.JSON(status, ErrorResponse{
		Error:     code,
		Message:   err.Error(),
		Retryable: model.IsRetryable(err),
	})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrRoomClosed):
		return http.StatusGone, "room_closed"
	case errors.Is(err, model.ErrRoomFull):
		return http.StatusConflict, "room_full"
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, model.ErrAlreadyMember):
		return http.StatusConflict, "already_member"
	case errors.Is(err, model.ErrNotMember):
		return http.StatusConflict, "not_member"
	case errors.Is(err, model.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
