package http

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"

	"github.com/shinyes/pastpaper/internal/config"
	"github.com/shinyes/pastpaper/internal/models"
	"github.com/shinyes/pastpaper/internal/service"
	"github.com/shinyes/pastpaper/internal/sheets"
	"github.com/shinyes/pastpaper/internal/storage"
	"github.com/shinyes/pastpaper/internal/store"
)

type Dependencies struct {
	Users     *service.UserService
	Questions *service.QuestionService
	Stats     *service.StatsService
	Archive   *service.ArchiveService
	Metadata  *service.MetadataService
	// Syncer is nil when no spreadsheet endpoint is configured.
	Syncer *sheets.Syncer
}

func NewRouter(cfg config.Config, logger logrus.FieldLogger, deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(requestid.New())
	app.Use(AccessLog(logger))
	app.Use(cors.New())

	app.Get("/api/v1/healthz", func(c *fiber.Ctx) error {
		n, err := deps.Questions.CountQuestions(c.Context())
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(healthResponse{Status: "ok", Questions: n})
	})

	app.Get("/api/v1/facets", func(c *fiber.Ctx) error {
		return c.JSON(deps.Questions.Table())
	})

	app.Post("/api/v1/questions\\:browse", func(c *fiber.Ctx) error {
		var req service.BrowseRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "invalid request body")
			}
		}
		result, err := deps.Questions.Browse(c.Context(), req)
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(result)
	})

	app.Get("/api/v1/questions/:id", func(c *fiber.Ctx) error {
		detail, err := deps.Questions.GetQuestion(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFound(c, "question not found")
			}
			return internalError(c, err)
		}
		return c.JSON(detail)
	})

	app.Get("/api/v1/sync/status", func(c *fiber.Ctx) error {
		resp := syncStatusResponse{Enabled: deps.Syncer != nil}
		last, err := deps.Questions.LastSyncTime(c.Context())
		if err != nil {
			return internalError(c, err)
		}
		if last != nil {
			resp.LastSyncTime = formatTime(*last)
		}
		if deps.Syncer != nil {
			status := deps.Syncer.Status()
			resp.Status = &status
		}
		return c.JSON(resp)
	})

	app.Get("/api/v1/stats", func(c *fiber.Ctx) error {
		summary, err := deps.Stats.Summary(c.Context())
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(summary)
	})

	app.Get("/api/v1/metadata/:kind", func(c *fiber.Ctx) error {
		items, err := deps.Metadata.List(c.Context(), models.MetadataKind(c.Params("kind")))
		if err != nil {
			return metadataError(c, err)
		}
		return c.JSON(listMetadataResponse{Items: items})
	})

	app.Get("/api/v1/metadata/:kind/:name", func(c *fiber.Ctx) error {
		item, err := deps.Metadata.Get(c.Context(), models.MetadataKind(c.Params("kind")), c.Params("name"))
		if err != nil {
			return metadataError(c, err)
		}
		return c.JSON(item)
	})

	app.Post("/api/v1/auth/signin", func(c *fiber.Ctx) error {
		var req signInRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if req.PasswordCredentials == nil {
			return badRequest(c, "passwordCredentials is required")
		}

		user, accessToken, err := deps.Users.SignInWithPassword(
			c.Context(),
			req.PasswordCredentials.Username,
			req.PasswordCredentials.Password,
		)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidCredentials):
				return badRequest(c, "unmatched username and password")
			default:
				return internalError(c, err)
			}
		}

		return c.JSON(signInResponse{
			User:        toAPIUser(user),
			AccessToken: accessToken,
		})
	})

	app.Post("/api/v1/auth/admin", func(c *fiber.Ctx) error {
		var req adminSignInRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		user, accessToken, err := deps.Users.SignInAdmin(c.Context(), req.Password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrRemoteAdminDisabled):
				return unavailable(c, "remote admin sign-in is not configured")
			case errors.Is(err, service.ErrInvalidCredentials):
				return unauthorized(c, "invalid admin password")
			default:
				return badGateway(c, err)
			}
		}
		return c.JSON(signInResponse{
			User:        toAPIUser(user),
			AccessToken: accessToken,
		})
	})

	api := app.Group("/api/v1", AuthMiddleware(deps.Users))
	admin := RequireAdmin()

	api.Get("/auth/me", func(c *fiber.Ctx) error {
		return c.JSON(getCurrentUserResponse{
			User: toAPIUser(CurrentUser(c)),
		})
	})

	api.Post("/users", admin, func(c *fiber.Ctx) error {
		var req createUserRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		user, err := deps.Users.CreateUser(c.Context(), service.CreateUserInput{
			Username:    req.User.Username,
			DisplayName: req.User.DisplayName,
			Password:    req.User.Password,
			Role:        req.User.Role,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidUsername):
				return badRequest(c, "invalid username")
			case errors.Is(err, service.ErrInvalidDisplayName):
				return badRequest(c, "invalid displayName")
			case errors.Is(err, service.ErrInvalidPassword):
				return badRequest(c, "invalid password")
			case errors.Is(err, service.ErrInvalidRole):
				return badRequest(c, "invalid role")
			case errors.Is(err, service.ErrUsernameAlreadyExists):
				return conflict(c, "username already exists")
			default:
				return internalError(c, err)
			}
		}
		return c.JSON(toAPIUser(user))
	})

	api.Post("/questions", admin, func(c *fiber.Ctx) error {
		var q models.Question
		if err := c.BodyParser(&q); err != nil {
			return badRequest(c, "invalid request body")
		}
		result, err := deps.Questions.CreateQuestion(c.Context(), q)
		if err != nil {
			return questionError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	api.Put("/questions/:id", admin, func(c *fiber.Ctx) error {
		var q models.Question
		if err := c.BodyParser(&q); err != nil {
			return badRequest(c, "invalid request body")
		}
		result, err := deps.Questions.UpdateQuestion(c.Context(), c.Params("id"), q)
		if err != nil {
			return questionError(c, err)
		}
		return c.JSON(result)
	})

	api.Delete("/questions/:id", admin, func(c *fiber.Ctx) error {
		if err := deps.Questions.DeleteQuestion(c.Context(), c.Params("id")); err != nil {
			return questionError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	api.Delete("/questions", admin, func(c *fiber.Ctx) error {
		if err := deps.Questions.ClearQuestions(c.Context()); err != nil {
			return internalError(c, err)
		}
		return c.JSON(clearResponse{Cleared: true})
	})

	api.Post("/sync", admin, func(c *fiber.Ctx) error {
		if deps.Syncer == nil {
			return unavailable(c, "spreadsheet sync is not configured")
		}
		result, err := deps.Syncer.Run(c.Context())
		if err != nil {
			return badGateway(c, err)
		}
		return c.JSON(result)
	})

	api.Get("/export", admin, func(c *fiber.Ctx) error {
		snap, err := deps.Archive.Export(c.Context())
		if err != nil {
			return internalError(c, err)
		}
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", service.Filename(snap.ExportDate)))
		return c.JSON(snap)
	})

	api.Post("/export\\:snapshot", admin, func(c *fiber.Ctx) error {
		obj, err := deps.Archive.SaveSnapshot(c.Context())
		if err != nil {
			return internalError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(obj)
	})

	api.Get("/export/snapshots", admin, func(c *fiber.Ctx) error {
		items, err := deps.Archive.ListSnapshots(c.Context())
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(fiber.Map{"snapshots": items})
	})

	api.Post("/import", admin, func(c *fiber.Ctx) error {
		var (
			result service.ImportResult
			err    error
		)
		if key := strings.TrimSpace(c.Query("snapshot")); key != "" {
			result, err = deps.Archive.RestoreSnapshot(c.Context(), key)
		} else {
			result, err = deps.Archive.Import(c.Context(), c.Body())
		}
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidSnapshot), errors.Is(err, service.ErrInvalidKey):
				return badRequest(c, err.Error())
			case errors.Is(err, storage.ErrNotFound):
				return notFound(c, "snapshot not found")
			default:
				return internalError(c, err)
			}
		}
		return c.JSON(result)
	})

	api.Put("/metadata/:kind/:name", admin, func(c *fiber.Ctx) error {
		var req metadataRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		item, err := deps.Metadata.Put(c.Context(), models.MetadataKind(c.Params("kind")), c.Params("name"), req.Comment)
		if err != nil {
			return metadataError(c, err)
		}
		return c.JSON(item)
	})

	api.Delete("/metadata/:kind/:name", admin, func(c *fiber.Ctx) error {
		if err := deps.Metadata.Delete(c.Context(), models.MetadataKind(c.Params("kind")), c.Params("name")); err != nil {
			return metadataError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	return app
}

func questionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidQuestion), errors.Is(err, service.ErrIDMismatch):
		return badRequest(c, err.Error())
	case errors.Is(err, store.ErrQuestionExists):
		return conflict(c, "question id already exists")
	case errors.Is(err, sql.ErrNoRows):
		return notFound(c, "question not found")
	default:
		return internalError(c, err)
	}
}

func metadataError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidMetadataKind), errors.Is(err, service.ErrInvalidMetadataName):
		return badRequest(c, err.Error())
	case errors.Is(err, sql.ErrNoRows):
		return notFound(c, "metadata not found")
	default:
		return internalError(c, err)
	}
}

func toAPIUser(user models.User) apiUser {
	role := strings.ToUpper(strings.TrimSpace(user.Role))
	switch role {
	case models.RoleHost, models.RoleAdmin:
		role = models.RoleAdmin
	case models.RoleUser:
	default:
		role = "ROLE_UNSPECIFIED"
	}
	name := ""
	if user.ID > 0 {
		name = user.Name()
	}
	return apiUser{
		Name:        name,
		Role:        role,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		CreateTime:  formatMaybeTime(user.CreateTime),
		UpdateTime:  formatMaybeTime(user.UpdateTime),
	}
}

// errorHandler renders errors that escape handlers, such as unmatched routes,
// with the same envelope as handler errors.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	return writeError(c, status, statusCode(status), err.Error())
}

func statusCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusBadGateway:
		return "BAD_GATEWAY"
	case fiber.StatusServiceUnavailable:
		return "UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
	return id
}

func writeError(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(errorResponse{
		Code:      code,
		Message:   message,
		RequestID: requestID(c),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", message)
}

func unauthorized(c *fiber.Ctx, message string) error {
	return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", message)
}

func forbidden(c *fiber.Ctx, message string) error {
	return writeError(c, fiber.StatusForbidden, "FORBIDDEN", message)
}

func notFound(c *fiber.Ctx, message string) error {
	return writeError(c, fiber.StatusNotFound, "NOT_FOUND", message)
}

func conflict(c *fiber.Ctx, message string) error {
	return writeError(c, fiber.StatusConflict, "CONFLICT", message)
}

func unavailable(c *fiber.Ctx, message string) error {
	return writeError(c, fiber.StatusServiceUnavailable, "UNAVAILABLE", message)
}

func badGateway(c *fiber.Ctx, err error) error {
	return writeError(c, fiber.StatusBadGateway, "BAD_GATEWAY", err.Error())
}

func internalError(c *fiber.Ctx, err error) error {
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL", err.Error())
}
