// Package http exposes the dispatch use cases over REST. Request shapes are
// described by the embedded openapi.yaml, which also drives request validation.
package http

import (
	"context"
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"go.uber.org/zap"
)

// Use case contracts the server depends on. The command and query handlers satisfy them.
type (
	RegisterOrderHandler interface {
		Handle(ctx context.Context, cmd commands.RegisterOrderCommand) error
	}
	StartAssignmentHandler interface {
		Handle(ctx context.Context, cmd commands.StartAssignmentCommand) (commands.Batch, error)
	}
	VendorAcceptHandler interface {
		Handle(ctx context.Context, cmd commands.VendorAcceptCommand) (commands.AcceptResult, error)
	}
	VendorRejectHandler interface {
		Handle(ctx context.Context, cmd commands.VendorRejectCommand) (commands.RejectResult, error)
	}
	ForceAssignHandler interface {
		Handle(ctx context.Context, cmd commands.ForceAssignCommand) error
	}
	CancelOrderHandler interface {
		Handle(ctx context.Context, cmd commands.CancelOrderCommand) error
	}
	AdvanceOrderHandler interface {
		Handle(ctx context.Context, cmd commands.AdvanceOrderCommand) error
	}
	UpsertVendorHandler interface {
		Handle(ctx context.Context, cmd commands.UpsertVendorCommand) (bool, error)
	}
	ExpireOffersHandler interface {
		Handle(ctx context.Context, cmd commands.ExpireOffersCommand) (commands.SweepResult, error)
	}
	AssignmentHistoryHandler interface {
		Handle(ctx context.Context, query queries.GetAssignmentHistoryQuery) ([]queries.GetAssignmentHistoryQueryResponse, error)
	}
	VendorOffersHandler interface {
		Handle(ctx context.Context, query queries.GetVendorOffersQuery) ([]queries.GetVendorOffersQueryResponse, error)
	}
)

// Handlers groups every use case the server exposes.
type Handlers struct {
	RegisterOrder     RegisterOrderHandler
	StartAssignment   StartAssignmentHandler
	VendorAccept      VendorAcceptHandler
	VendorReject      VendorRejectHandler
	ForceAssign       ForceAssignHandler
	CancelOrder       CancelOrderHandler
	AdvanceOrder      AdvanceOrderHandler
	UpsertVendor      UpsertVendorHandler
	ExpireOffers      ExpireOffersHandler
	AssignmentHistory AssignmentHistoryHandler
	VendorOffers      VendorOffersHandler
}

// Server implements ServerInterface on top of the dispatch use cases.
type Server struct {
	handlers Handlers
	logger   *zap.Logger
}

func NewServer(handlers Handlers, logger *zap.Logger) *Server {
	return &Server{handlers: handlers, logger: logger.With(zap.String("component", "http"))}
}

var _ ServerInterface = (*Server)(nil)

func toKernel(id openapi_types.UUID) (kernel.UUID, error) {
	return kernel.UUIDFromBytes(id[:])
}

func parseID(name, s string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(s)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return id, nil
}

func badBody(ctx echo.Context) error {
	return ctx.JSON(http.StatusBadRequest, Error{
		Code:    http.StatusBadRequest,
		Kind:    string(errs.KindValidation),
		Message: "Invalid request body",
	})
}

// bindOptional binds a JSON body that may be absent.
func bindOptional(ctx echo.Context, dst any) error {
	if ctx.Request().ContentLength == 0 {
		return nil
	}
	return ctx.Bind(dst)
}

func toBatch(b commands.Batch) Batch {
	candidates := make([]Candidate, len(b.Candidates))
	for i, c := range b.Candidates {
		candidates[i] = Candidate{VendorID: c.VendorID.String(), DistanceKm: c.DistanceKm}
	}
	return Batch{
		OrderID:    b.OrderID.String(),
		Batch:      b.Number,
		ExpiresAt:  b.ExpiresAt.UTC(),
		Candidates: candidates,
	}
}

// RegisterOrder handles POST /api/v1/orders.
func (s *Server) RegisterOrder(ctx echo.Context) error {
	var body NewOrder
	if err := ctx.Bind(&body); err != nil {
		return badBody(ctx)
	}

	orderID, err := parseID("id", body.ID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewRegisterOrderCommand(orderID, body.DisplayID, body.Latitude, body.Longitude, body.Status)
	if err != nil {
		return s.writeError(ctx, err)
	}

	if err = s.handlers.RegisterOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusCreated)
}

// StartAssignment handles POST /api/v1/orders/{orderId}/assignment.
func (s *Server) StartAssignment(ctx echo.Context, id openapi_types.UUID) error {
	var body DispatchOptions
	if err := bindOptional(ctx, &body); err != nil {
		return badBody(ctx)
	}

	orderID, err := toKernel(id)
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewStartAssignmentCommand(orderID, body.MaxRadiusKm, body.BatchSize, body.TimeoutSeconds)
	if err != nil {
		return s.writeError(ctx, err)
	}

	batch, err := s.handlers.StartAssignment.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, toBatch(batch))
}

// GetAssignmentHistory handles GET /api/v1/orders/{orderId}/assignments.
func (s *Server) GetAssignmentHistory(ctx echo.Context, id openapi_types.UUID) error {
	orderID, err := toKernel(id)
	if err != nil {
		return s.writeError(ctx, err)
	}

	query, err := queries.NewGetAssignmentHistoryQuery(orderID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	rows, err := s.handlers.AssignmentHistory.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.writeError(ctx, err)
	}

	response := make([]AssignmentRow, len(rows))
	for i, row := range rows {
		response[i] = AssignmentRow{
			ID:              row.ID.String(),
			VendorID:        row.VendorID.String(),
			Status:          row.Status,
			Batch:           row.Batch,
			DistanceKm:      row.DistanceKm,
			RejectionReason: row.RejectionReason,
			ForceAssigned:   row.ForceAssigned,
			PushedAt:        row.PushedAt,
			RespondedAt:     row.RespondedAt,
			ExpiresAt:       row.ExpiresAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// AcceptOffer handles POST /api/v1/orders/{orderId}/offers/{vendorId}/accept.
// A lost race is a 200 with success false.
func (s *Server) AcceptOffer(ctx echo.Context, oid, vid openapi_types.UUID) error {
	orderID, err := toKernel(oid)
	if err != nil {
		return s.writeError(ctx, err)
	}
	vendorID, err := toKernel(vid)
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewVendorAcceptCommand(orderID, vendorID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	result, err := s.handlers.VendorAccept.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, AcceptResult{
		Success: result.Success,
		Winner:  result.Winner,
		Reason:  result.Reason,
	})
}

// RejectOffer handles POST /api/v1/orders/{orderId}/offers/{vendorId}/reject.
func (s *Server) RejectOffer(ctx echo.Context, oid, vid openapi_types.UUID) error {
	var body Reason
	if err := bindOptional(ctx, &body); err != nil {
		return badBody(ctx)
	}

	orderID, err := toKernel(oid)
	if err != nil {
		return s.writeError(ctx, err)
	}
	vendorID, err := toKernel(vid)
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewVendorRejectCommand(orderID, vendorID, body.Reason)
	if err != nil {
		return s.writeError(ctx, err)
	}

	result, err := s.handlers.VendorReject.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.writeError(ctx, err)
	}

	response := RejectResult{AssignmentFailed: result.Fallback.Failed}
	if result.Fallback.NextBatch != nil {
		next := toBatch(*result.Fallback.NextBatch)
		response.NextBatch = &next
	}
	return ctx.JSON(http.StatusOK, response)
}

// ForceAssign handles POST /api/v1/orders/{orderId}/force-assign.
func (s *Server) ForceAssign(ctx echo.Context, oid openapi_types.UUID) error {
	var body ForceAssign
	if err := ctx.Bind(&body); err != nil {
		return badBody(ctx)
	}

	orderID, err := toKernel(oid)
	if err != nil {
		return s.writeError(ctx, err)
	}
	vendorID, err := parseID("vendorId", body.VendorID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewForceAssignCommand(orderID, vendorID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	if err = s.handlers.ForceAssign.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CancelOrder handles POST /api/v1/orders/{orderId}/cancel.
func (s *Server) CancelOrder(ctx echo.Context, oid openapi_types.UUID) error {
	var body Reason
	if err := bindOptional(ctx, &body); err != nil {
		return badBody(ctx)
	}

	orderID, err := toKernel(oid)
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewCancelOrderCommand(orderID, body.Reason)
	if err != nil {
		return s.writeError(ctx, err)
	}

	if err = s.handlers.CancelOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// AdvanceOrder handles POST /api/v1/orders/{orderId}/status.
func (s *Server) AdvanceOrder(ctx echo.Context, oid openapi_types.UUID) error {
	var body AdvanceOrder
	if err := ctx.Bind(&body); err != nil {
		return badBody(ctx)
	}

	orderID, err := toKernel(oid)
	if err != nil {
		return s.writeError(ctx, err)
	}
	vendorID, err := parseID("vendorId", body.VendorID)
	if err != nil {
		return s.writeError(ctx, err)
	}
	target, err := order.ParseStatus(body.Status)
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewAdvanceOrderCommand(orderID, vendorID, target)
	if err != nil {
		return s.writeError(ctx, err)
	}

	if err = s.handlers.AdvanceOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// UpsertVendor handles PUT /api/v1/vendors/{vendorId}.
func (s *Server) UpsertVendor(ctx echo.Context, vid openapi_types.UUID) error {
	var body VendorUpsert
	if err := ctx.Bind(&body); err != nil {
		return badBody(ctx)
	}

	vendorID, err := toKernel(vid)
	if err != nil {
		return s.writeError(ctx, err)
	}
	accountID, err := parseID("accountId", body.AccountID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewUpsertVendorCommand(vendorID, accountID, body.Name, body.Latitude, body.Longitude, body.Status)
	if err != nil {
		return s.writeError(ctx, err)
	}

	created, err := s.handlers.UpsertVendor.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.writeError(ctx, err)
	}

	if created {
		return ctx.NoContent(http.StatusCreated)
	}
	return ctx.NoContent(http.StatusOK)
}

// GetVendorOffers handles GET /api/v1/vendors/{vendorId}/offers.
func (s *Server) GetVendorOffers(ctx echo.Context, vid openapi_types.UUID) error {
	vendorID, err := toKernel(vid)
	if err != nil {
		return s.writeError(ctx, err)
	}

	query, err := queries.NewGetVendorOffersQuery(vendorID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	offers, err := s.handlers.VendorOffers.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.writeError(ctx, err)
	}

	response := make([]VendorOffer, len(offers))
	for i, offer := range offers {
		response[i] = VendorOffer{
			AssignmentID: offer.AssignmentID.String(),
			OrderID:      offer.OrderID.String(),
			DisplayID:    offer.OrderDisplayID,
			Latitude:     offer.OrderLocation.Latitude(),
			Longitude:    offer.OrderLocation.Longitude(),
			DistanceKm:   offer.DistanceKm,
			Batch:        offer.Batch,
			PushedAt:     offer.PushedAt,
			ExpiresAt:    offer.ExpiresAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// ExpireOffers handles POST /api/v1/offers/expire.
func (s *Server) ExpireOffers(ctx echo.Context, params ExpireOffersParams) error {
	limit := commands.DefaultSweepLimit
	if params.Limit != nil {
		limit = *params.Limit
	}

	cmd, err := commands.NewExpireOffersCommand(limit)
	if err != nil {
		return s.writeError(ctx, err)
	}

	result, err := s.handlers.ExpireOffers.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, SweepResult{
		OrdersChecked:   result.OrdersChecked,
		OffersExpired:   result.OffersExpired,
		BatchesPushed:   result.BatchesPushed,
		OrdersFailed:    result.OrdersFailed,
		StrandedHandled: result.StrandedHandled,
	})
}
