package main

import (
	"context"
	"net/http"

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

	if req.Method != http.MethodGet || req.Path != handlers.HealthPath {
		return middleware.JSONError(http.StatusNotFound, middleware.ErrorResponse{
			Error:     "Not found",
			RequestID: req.RequestID,
		})
	}
	return container.HealthHandler.HandleHealth(ctx, req)
}

func main() {
	awslambda.Start(lambda.Proxy(handler))
}
