package routes

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"skland/core"
	utils "skland/utils"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type Request struct {
	TaskID string   `json:"task_id"`
	Token  string   `json:"token"`
	Games  []string `json:"games"`
	Proxy  string   `json:"proxy"`
}

type DecryptRequest struct {
	Data  string `json:"data"`
	PriID string `json:"pri_id"`
}

var taskPool sync.Map

var (
	TaskTimeout = 60 * time.Second

	// Dial opens the per-task transport; tests replace it with a stub.
	Dial core.Dialer = func(proxy string) (core.HttpDoer, error) {
		client, err := utils.NewHttpClient(proxy)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
)

// Colors
var (
	gameColor    = color.New(color.FgMagenta).SprintFunc()
	labelColor   = color.New(color.FgHiWhite).SprintFunc()
	neutralColor = color.New(color.FgWhite).SprintFunc()
	darkGray     = color.New(color.FgHiBlack).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
)

func GetGamesRoute(c echo.Context) error {
	games := make([]map[string]string, 0, len(utils.Presets))
	for _, preset := range utils.Presets {
		games = append(games, map[string]string{
			"name":      preset.Name,
			"website":   preset.WebsiteName,
			"sign_path": preset.SignPath,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"games":   games,
	})
}

func CreateTaskRoute(c echo.Context) error {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered from panic: %v", r)
		}
	}()

	contentType := c.Request().Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return c.JSON(http.StatusUnsupportedMediaType, map[string]interface{}{
			"success": false,
			"error":   "Unsupported Content-Type",
			"details": fmt.Sprintf("Expected 'Content-Type: application/json' but got '%s'", contentType),
		})
	}

	var req Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request"})
	}

	if strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "token wasn't provided"})
	}

	if req.Proxy != "" && !validProxy(req.Proxy) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "invalid proxy",
		})
	}

	games := req.Games
	if len(games) == 0 {
		for _, preset := range utils.Presets {
			games = append(games, preset.Name)
		}
	}
	for _, game := range games {
		if _, err := utils.FindPresetByName(game); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid game: " + game})
		}
	}

	task, err := core.NewSignTask(strings.TrimSpace(req.Token), games, req.Proxy)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "failed to create task"})
	}

	taskPool.Store(task.ID, task)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), TaskTimeout)
		defer cancel()

		start := time.Now()

		done := make(chan error, 1)
		go func() {
			done <- task.Run(ctx, Dial)
		}()

		var err error
		select {
		case err = <-done:
		case <-ctx.Done():
			err = fmt.Errorf("timeout reached - skland network issue")
		}

		duration := time.Since(start)
		task.Finish(err, duration)

		logTaskCompletion(task.Snapshot(), err == nil, duration)
	}()

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "task_id": task.ID})
}

func GetTaskRoute(c echo.Context) error {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered from panic: %v", r)
		}
	}()

	var req Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request"})
	}

	val, exists := taskPool.Load(req.TaskID)
	if !exists {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid task_id"})
	}
	task := val.(*core.SignTask).Snapshot()

	switch task.Status {
	case core.TaskCompleted:
		taskPool.Delete(req.TaskID)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":   true,
			"status":    task.Status,
			"device_id": task.DeviceID,
			"logs":      task.Logs,
			"time":      math.Round(task.ProcessTime*100) / 100,
		})

	case core.TaskError:
		taskPool.Delete(req.TaskID)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": false,
			"status":  task.Status,
			"error":   task.ErrorReason,
			"logs":    task.Logs,
		})

	case core.TaskProcessing:
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": false,
			"status":  task.Status,
		})

	default:
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "unknown task status",
		})
	}
}

// DecryptPayloadRoute decodes a captured device profile "data" field.
func DecryptPayloadRoute(c echo.Context) error {
	var req DecryptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request"})
	}

	if len(req.PriID) != 16 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": "pri_id must be 16 characters"})
	}

	fields, err := core.DecodePayload(req.Data, req.PriID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"success": false, "error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"fields":  fields,
	})
}

// validProxy accepts http, https and socks5 proxy URLs with an explicit host and port.
func validProxy(proxy string) bool {
	u, err := url.Parse(proxy)
	if err != nil {
		return false
	}

	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return false
	}

	return u.Hostname() != "" && u.Port() != ""
}

// Utilities
func logTaskCompletion(task core.TaskView, success bool, duration time.Duration) {
	status := successColor(task.Status)
	if !success {
		status = errorColor(task.Status)
	}

	separator := darkGray("|")

	message := strings.Join([]string{
		gameColor(strings.Join(task.Games, ",")),
		separator,
		labelColor("Device:"), neutralColor(task.DeviceID),
		separator,
		labelColor("Time:"), neutralColor(fmt.Sprintf("%.2fs", duration.Seconds())),
		separator,
		labelColor("Status:"), status,
	}, " ")

	if task.ErrorReason != "" {
		message += " " + separator + " " + errorColor(task.ErrorReason)
	}

	log.WithField("task", task.ID).Info(message)
}
