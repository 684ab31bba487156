package handlers

import (
	"errors"
	"net/http"
	"socketWhiteboard/internal/errs"
	"socketWhiteboard/internal/models"
	"socketWhiteboard/internal/msgs"
	"socketWhiteboard/internal/services"
	"socketWhiteboard/internal/validators"
	"strings"

	"github.com/gin-gonic/gin"
)

type RestHandler struct {
	authService       *services.AuthenticationService
	whiteboardService *services.WhiteboardService
}

func NewRestHandler(
	authService *services.AuthenticationService,
	whiteboardService *services.WhiteboardService,
) *RestHandler {
	return &RestHandler{
		authService:       authService,
		whiteboardService: whiteboardService,
	}
}

// Health godoc
// @Summary      Liveness check
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (rh *RestHandler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Register godoc
// @Summary      Register a user
// @Description  Creates an account and returns a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.CredentialsRequestBody  true  "Credentials"
// @Success      201   {object}  models.Response{data=models.TokenResponse}
// @Failure      400   {object}  models.Response
// @Router       /api/auth/register [post]
func (rh *RestHandler) Register(ctx *gin.Context) {
	body, ok := rh.bindCredentials(ctx)
	if !ok {
		return
	}

	token, registerErrs := rh.authService.Register(ctx.Request.Context(), body)
	if len(registerErrs) > 0 {
		ctx.AbortWithStatusJSON(credentialStatus(registerErrs), models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  registerErrs,
		})
		return
	}

	ctx.JSON(http.StatusCreated, models.Response{
		Success: true,
		Message: msgs.MsgUserCreatedSuccessfully,
		Data:    token,
	})
}

// Login godoc
// @Summary      Login
// @Description  Returns a session token for valid credentials
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.CredentialsRequestBody  true  "Credentials"
// @Success      200   {object}  models.Response{data=models.TokenResponse}
// @Failure      400   {object}  models.Response
// @Router       /api/auth/login [post]
func (rh *RestHandler) Login(ctx *gin.Context) {
	body, ok := rh.bindCredentials(ctx)
	if !ok {
		return
	}

	token, loginErrs := rh.authService.Login(ctx.Request.Context(), body)
	if len(loginErrs) > 0 {
		ctx.AbortWithStatusJSON(credentialStatus(loginErrs), models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  loginErrs,
		})
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    token,
	})
}

// VerifyToken godoc
// @Summary      Verify a session token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Response{data=models.VerifyTokenResponse}
// @Failure      401  {object}  models.Response
// @Router       /api/auth/verifyToken [post]
func (rh *RestHandler) VerifyToken(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    models.VerifyTokenResponse{User: models.UserResponse{Username: ctx.GetString(ctxKeyUsername)}},
	})
}

// GetWhiteboard godoc
// @Summary      Current whiteboard of a room
// @Tags         whiteboard
// @Produce      json
// @Security     BearerAuth
// @Param        room  path      string  true  "Room id"
// @Success      200   {object}  models.Response{data=models.Whiteboard}
// @Failure      404   {object}  models.Response
// @Failure      500   {object}  models.Response
// @Router       /api/rooms/{room}/whiteboard [get]
func (rh *RestHandler) GetWhiteboard(ctx *gin.Context) {
	room := strings.TrimSpace(ctx.Param("room"))
	whiteboard, found, err := rh.whiteboardService.Get(ctx.Request.Context(), room)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}
	if !found {
		rh.abortWithError(ctx, errs.ErrNoWhiteboardFoundForThisRoom)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgOperationSuccessful,
		Data:    whiteboard,
	})
}

// ExportWhiteboard godoc
// @Summary      Export a room's whiteboard to object storage
// @Tags         whiteboard
// @Produce      json
// @Security     BearerAuth
// @Param        room  path      string  true  "Room id"
// @Success      200   {object}  models.Response{data=map[string]string}
// @Failure      404   {object}  models.Response
// @Failure      501   {object}  models.Response
// @Router       /api/rooms/{room}/whiteboard/export [post]
func (rh *RestHandler) ExportWhiteboard(ctx *gin.Context) {
	room := strings.TrimSpace(ctx.Param("room"))
	url, err := rh.whiteboardService.Export(ctx.Request.Context(), room)
	if err != nil {
		rh.abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: msgs.MsgWhiteboardExported,
		Data:    gin.H{"url": url},
	})
}

// bindCredentials reports field problems the same way the service does.
func (rh *RestHandler) bindCredentials(ctx *gin.Context) (*models.CredentialsRequestBody, bool) {
	var body models.CredentialsRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		validationErrs := validators.ValidateCredentials(&body)
		if len(validationErrs) == 0 {
			validationErrs = []error{errs.ErrInvalidRequestBody}
		}
		ctx.AbortWithStatusJSON(http.StatusBadRequest, models.Response{
			Success: false,
			Message: msgs.MsgOperationFailed,
			Errors:  validationErrs,
		})
		return nil, false
	}
	return &body, true
}

// credentialStatus is 500 when a storage fault is among the errors, 400 otherwise.
func credentialStatus(list []error) int {
	for _, err := range list {
		if errors.Is(err, errs.ErrStorage) {
			return http.StatusInternalServerError
		}
	}
	return http.StatusBadRequest
}

func (rh *RestHandler) abortWithError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNoWhiteboardFoundForThisRoom):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrWhiteboardExportDisabled):
		status = http.StatusNotImplemented
	case errors.Is(err, errs.ErrStorage):
		err = errs.ErrStorage
	}
	ctx.AbortWithStatusJSON(status, models.Response{
		Success: false,
		Message: msgs.MsgOperationFailed,
		Errors:  []error{err},
	})
}
