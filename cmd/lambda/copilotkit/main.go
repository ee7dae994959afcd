package main

import (
	"context"
	"net/http"
	"strings"

	"copilot-runtime-function/internal/handlers"
	"copilot-runtime-function/internal/middleware"
	"copilot-runtime-function/pkg/lambda"
	"copilot-runtime-function/pkg/server"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

func handler(ctx context.Context, req *lambda.Request) *lambda.Response {
	container, err := server.GetContainerManager().GetContainer(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to initialize container")
		return middleware.JSONError(http.StatusInternalServerError, middleware.ErrorResponse{
			Error:     "Service configuration error",
			RequestID: req.RequestID,
		})
	}

	// Route the request
	switch {
	case req.Path == handlers.RuntimePath || strings.HasPrefix(req.Path, handlers.RuntimePath+"/"):
		return container.RuntimeHandler.HandleRuntime(ctx, req)
	default:
		return middleware.JSONError(http.StatusNotFound, middleware.ErrorResponse{
			Error:     "Not found",
			RequestID: req.RequestID,
		})
	}
}

func main() {
	awslambda.Start(lambda.Proxy(handler))
}
