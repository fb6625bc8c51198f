package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog/log"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
	"github.com/elektroprotokolle/pruefprotokoll/internal/export"
	"github.com/elektroprotokolle/pruefprotokoll/internal/service"
)

func Register(app *fiber.App, svcs *service.Services) {
	h := &handlers{svcs: svcs}

	g := app.Group("/protocols")
	g.Get("/", h.listProtocols)
	g.Get("/summary", h.summary)
	g.Get("/due", h.due)
	g.Post("/due/remind", h.remind)
	g.Get("/:id", h.getProtocol)
	g.Post("/", h.createProtocol)
	g.Put("/:id", h.updateProtocol)
	g.Delete("/:id", h.deleteProtocol)
	g.Get("/:id/export", h.exportProtocol)
	g.Post("/:id/publish", h.publishProtocol)

	d := app.Group("/draft")
	d.Post("/", h.beginDraft)
	d.Get("/", h.currentDraft)
	d.Patch("/", h.patchDraft)
	d.Delete("/", h.discardDraft)
	d.Post("/submit", h.submitDraft)
	d.Post("/measurements", h.addRow)
	d.Patch("/measurements/:rowId", h.updateRow)
	d.Delete("/measurements/:rowId", h.removeRow)
	d.Put("/inspection/:key", h.setInspection)
}

type handlers struct {
	svcs *service.Services
}

// fail maps service and validation errors onto HTTP statuses.
func fail(c *fiber.Ctx, err error) error {
	var (
		ve *domain.ValidationError
		fe *fiber.Error
	)
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Error(), "field": ve.Field, "reason": ve.Reason})
	case errors.As(err, &fe):
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNoDraft):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrPublishingDisabled), errors.Is(err, service.ErrAlertsDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	return nil
}

func (h *handlers) listProtocols(c *fiber.Ctx) error {
	ps := h.svcs.Protocols.Search(c.Query("q"))
	if ps == nil {
		ps = []domain.Protocol{}
	}
	return c.JSON(ps)
}

func (h *handlers) summary(c *fiber.Ctx) error {
	return c.JSON(h.svcs.Protocols.Summary())
}

func parseBefore(c *fiber.Ctx) (time.Time, error) {
	v := c.Query("before")
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(domain.DateLayout, v)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: "before", Reason: domain.ReasonInvalidDate}
	}
	return t, nil
}

func (h *handlers) due(c *fiber.Ctx) error {
	before, err := parseBefore(c)
	if err != nil {
		return fail(c, err)
	}
	due := h.svcs.Inspections.Due(before)
	if due == nil {
		due = []service.DueInspection{}
	}
	return c.JSON(due)
}

func (h *handlers) remind(c *fiber.Ctx) error {
	before, err := parseBefore(c)
	if err != nil {
		return fail(c, err)
	}
	n, err := h.svcs.Inspections.Remind(c.UserContext(), before)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"reminded": n})
}

func (h *handlers) getProtocol(c *fiber.Ctx) error {
	p, err := h.svcs.Protocols.Get(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}

func (h *handlers) createProtocol(c *fiber.Ctx) error {
	var patch domain.Patch
	if err := decode(c, &patch); err != nil {
		return fail(c, err)
	}
	p, err := h.svcs.Protocols.Create(c.UserContext(), patch)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *handlers) updateProtocol(c *fiber.Ctx) error {
	var patch domain.Patch
	if err := decode(c, &patch); err != nil {
		return fail(c, err)
	}
	p, err := h.svcs.Protocols.Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}

func (h *handlers) deleteProtocol(c *fiber.Ctx) error {
	if err := h.svcs.Protocols.Delete(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) exportProtocol(c *fiber.Ctx) error {
	doc, err := h.svcs.Exports.Export(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return c.Send(doc.Data)
}

func (h *handlers) publishProtocol(c *fiber.Ctx) error {
	pub, err := h.svcs.Exports.Publish(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(pub)
}

func (h *handlers) beginDraft(c *fiber.Ctx) error {
	// The draft outlives the request; fiber reuses the query buffer.
	view, err := h.svcs.Protocols.BeginDraft(utils.CopyString(c.Query("protocol")))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *handlers) currentDraft(c *fiber.Ctx) error {
	view, err := h.svcs.Protocols.CurrentDraft()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

func (h *handlers) patchDraft(c *fiber.Ctx) error {
	var patch domain.Patch
	if err := decode(c, &patch); err != nil {
		return fail(c, err)
	}
	return h.editDraft(c, func(b *domain.Builder) error { return b.Apply(patch) })
}

func (h *handlers) discardDraft(c *fiber.Ctx) error {
	h.svcs.Protocols.DiscardDraft()
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) submitDraft(c *fiber.Ctx) error {
	p, err := h.svcs.Protocols.SubmitDraft(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *handlers) addRow(c *fiber.Ctx) error {
	var rowID string
	view, err := h.svcs.Protocols.EditDraft(func(b *domain.Builder) error {
		rowID = b.AddMeasurementRow()
		return nil
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"rowId": rowID, "draft": view})
}

func (h *handlers) updateRow(c *fiber.Ctx) error {
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := decode(c, &body); err != nil {
		return fail(c, err)
	}
	rowID := c.Params("rowId")
	return h.editDraft(c, func(b *domain.Builder) error {
		return b.UpdateMeasurementField(rowID, body.Field, body.Value)
	})
}

func (h *handlers) removeRow(c *fiber.Ctx) error {
	rowID := c.Params("rowId")
	return h.editDraft(c, func(b *domain.Builder) error {
		b.RemoveMeasurementRow(rowID)
		return nil
	})
}

func (h *handlers) setInspection(c *fiber.Ctx) error {
	var body struct {
		Status domain.InspectionStatus `json:"status"`
	}
	if err := decode(c, &body); err != nil {
		return fail(c, err)
	}
	key := c.Params("key")
	return h.editDraft(c, func(b *domain.Builder) error {
		return b.SetInspectionItem(key, body.Status)
	})
}

func (h *handlers) editDraft(c *fiber.Ctx, fn func(*domain.Builder) error) error {
	view, err := h.svcs.Protocols.EditDraft(fn)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}
