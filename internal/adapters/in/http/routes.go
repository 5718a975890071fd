package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ServerInterface lists the operations of openapi.yaml.
type ServerInterface interface {
	// (POST /api/v1/orders)
	RegisterOrder(ctx echo.Context) error
	// (POST /api/v1/orders/{orderId}/assignment)
	StartAssignment(ctx echo.Context, orderID openapi_types.UUID) error
	// (GET /api/v1/orders/{orderId}/assignments)
	GetAssignmentHistory(ctx echo.Context, orderID openapi_types.UUID) error
	// (POST /api/v1/orders/{orderId}/offers/{vendorId}/accept)
	AcceptOffer(ctx echo.Context, orderID openapi_types.UUID, vendorID openapi_types.UUID) error
	// (POST /api/v1/orders/{orderId}/offers/{vendorId}/reject)
	RejectOffer(ctx echo.Context, orderID openapi_types.UUID, vendorID openapi_types.UUID) error
	// (POST /api/v1/orders/{orderId}/force-assign)
	ForceAssign(ctx echo.Context, orderID openapi_types.UUID) error
	// (POST /api/v1/orders/{orderId}/cancel)
	CancelOrder(ctx echo.Context, orderID openapi_types.UUID) error
	// (POST /api/v1/orders/{orderId}/status)
	AdvanceOrder(ctx echo.Context, orderID openapi_types.UUID) error
	// (PUT /api/v1/vendors/{vendorId})
	UpsertVendor(ctx echo.Context, vendorID openapi_types.UUID) error
	// (GET /api/v1/vendors/{vendorId}/offers)
	GetVendorOffers(ctx echo.Context, vendorID openapi_types.UUID) error
	// (POST /api/v1/offers/expire)
	ExpireOffers(ctx echo.Context, params ExpireOffersParams) error
}

// ServerInterfaceWrapper binds path and query parameters before calling the handler.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func bindUUID(ctx echo.Context, name string) (openapi_types.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return id, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return id, nil
}

func (w *ServerInterfaceWrapper) RegisterOrder(ctx echo.Context) error {
	return w.Handler.RegisterOrder(ctx)
}

func (w *ServerInterfaceWrapper) StartAssignment(ctx echo.Context) error {
	orderID, err := bindUUID(ctx, "orderId")
	if err != nil {
		return err
	}
	return w.Handler.StartAssignment(ctx, orderID)
}

func (w *ServerInterfaceWrapper) GetAssignmentHistory(ctx echo.Context) error {
	orderID, err := bindUUID(ctx, "orderId")
	if err != nil {
		return err
	}
	return w.Handler.GetAssignmentHistory(ctx, orderID)
}

func (w *ServerInterfaceWrapper) AcceptOffer(ctx echo.Context) error {
	orderID, err := bindUUID(ctx, "orderId")
	if err != nil {
		return err
	}
	vendorID, err := bindUUID(ctx, "vendorId")
	if err != nil {
		return err
	}
	return w.Handler.AcceptOffer(ctx, orderID, vendorID)
}

func (w *ServerInterfaceWrapper) RejectOffer(ctx echo.Context) error {
	orderID, err := bindUUID(ctx, "orderId")
	if err != nil {
		return err
	}
	vendorID, err := bindUUID(ctx, "vendorId")
	if err != nil {
		return err
	}
	return w.Handler.RejectOffer(ctx, orderID, vendorID)
}

func (w *ServerInterfaceWrapper) ForceAssign(ctx echo.Context) error {
	orderID, err := bindUUID(ctx, "orderId")
	if err != nil {
		return err
	}
	return w.Handler.ForceAssign(ctx, orderID)
}

func (w *ServerInterfaceWrapper) CancelOrder(ctx echo.Context) error {
	orderID, err := bindUUID(ctx, "orderId")
	if err != nil {
		return err
	}
	return w.Handler.CancelOrder(ctx, orderID)
}

func (w *ServerInterfaceWrapper) AdvanceOrder(ctx echo.Context) error {
	orderID, err := bindUUID(ctx, "orderId")
	if err != nil {
		return err
	}
	return w.Handler.AdvanceOrder(ctx, orderID)
}

func (w *ServerInterfaceWrapper) UpsertVendor(ctx echo.Context) error {
	vendorID, err := bindUUID(ctx, "vendorId")
	if err != nil {
		return err
	}
	return w.Handler.UpsertVendor(ctx, vendorID)
}

func (w *ServerInterfaceWrapper) GetVendorOffers(ctx echo.Context) error {
	vendorID, err := bindUUID(ctx, "vendorId")
	if err != nil {
		return err
	}
	return w.Handler.GetVendorOffers(ctx, vendorID)
}

func (w *ServerInterfaceWrapper) ExpireOffers(ctx echo.Context) error {
	var params ExpireOffersParams
	err := runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &params.Limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter limit: %s", err))
	}
	return w.Handler.ExpireOffers(ctx, params)
}

// EchoRouter is the subset of echo.Echo and echo.Group used for registration.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds every operation of si to router.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	w := &ServerInterfaceWrapper{Handler: si}

	router.POST("/api/v1/orders", w.RegisterOrder)
	router.POST("/api/v1/orders/:orderId/assignment", w.StartAssignment)
	router.GET("/api/v1/orders/:orderId/assignments", w.GetAssignmentHistory)
	router.POST("/api/v1/orders/:orderId/offers/:vendorId/accept", w.AcceptOffer)
	router.POST("/api/v1/orders/:orderId/offers/:vendorId/reject", w.RejectOffer)
	router.POST("/api/v1/orders/:orderId/force-assign", w.ForceAssign)
	router.POST("/api/v1/orders/:orderId/cancel", w.CancelOrder)
	router.POST("/api/v1/orders/:orderId/status", w.AdvanceOrder)
	router.PUT("/api/v1/vendors/:vendorId", w.UpsertVendor)
	router.GET("/api/v1/vendors/:vendorId/offers", w.GetVendorOffers)
	router.POST("/api/v1/offers/expire", w.ExpireOffers)
}
