// controllers/affiliate_controller.go
package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/affiliate_signup/config"
	"github.com/HSouheill/affiliate_signup/models"
	"github.com/HSouheill/affiliate_signup/services"
	"github.com/HSouheill/affiliate_signup/utils"
)

const (
	messageMissingCredentials = "Server configuration error: affiliate service credentials are not set"
	messageEnrollFailed       = "Affiliate account was created but could not be enrolled in the program"
	messageFinalizeEnroll     = "Affiliate profile was saved but could not be enrolled in the program"
)

// AffiliateController relays affiliate sign-up form submissions to Tapfiliate
type AffiliateController struct {
	tapfiliate *services.TapfiliateService
	fields     *services.CustomFieldCache
	programs   config.ProgramMap
	validate   *validator.Validate
}

// NewAffiliateController creates a new affiliate controller
func NewAffiliateController(tapfiliate *services.TapfiliateService, fields *services.CustomFieldCache, programs config.ProgramMap) *AffiliateController {
	if programs == nil {
		programs = config.DefaultPrograms()
	}
	return &AffiliateController{
		tapfiliate: tapfiliate,
		fields:     fields,
		programs:   programs,
		validate:   newRequestValidator(),
	}
}

// HandleSignup accepts a sign-up form post and runs the sequence selected by
// its mode field.
func (ac *AffiliateController) HandleSignup(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodOptions:
		return c.NoContent(http.StatusOK)
	case http.MethodPost:
	default:
		return c.JSON(http.StatusMethodNotAllowed, models.Response{
			Status:  http.StatusMethodNotAllowed,
			Message: "Method Not Allowed",
		})
	}

	if !ac.tapfiliate.Configured() {
		log.Printf("ERROR: TAPFILIATE_API_KEY is not set, rejecting signup")
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: messageMissingCredentials,
		})
	}

	req, err := decodeRequest(c.Request().Body)
	if err != nil {
		log.Printf("ERROR: Invalid request format: %v", err)
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	req.Trim()

	ctx := services.WithRequestID(c.Request().Context(), c.Response().Header().Get(echo.HeaderXRequestID))
	log.Printf("[%s] Affiliate signup received, mode=%q", services.RequestIDFromContext(ctx), req.Mode)

	switch req.Mode {
	case models.ModeCreateAffiliateOnly:
		return ac.createAffiliateOnly(c, ctx, req)
	case models.ModeFinalizeAffiliate:
		return ac.finalizeAffiliate(c, ctx, req)
	case models.ModeUpdateCustomFields:
		return ac.updateCustomFields(c, ctx, req)
	case "":
		return ac.legacySignup(c, ctx, req)
	default:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Unsupported mode: %s", req.Mode),
		})
	}
}

// createAffiliateOnly creates the Tapfiliate account without enrolling it
func (ac *AffiliateController) createAffiliateOnly(c echo.Context, ctx context.Context, req *models.AffiliateRequest) error {
	if done, err := ac.requireFields(c, req, "FirstName", "LastName", "Email", "Password"); done {
		return err
	}

	customFields := ac.fields.Resolve(ctx, creationFieldValues(req))
	payload := utils.BuildAffiliatePayload(req, customFields)

	affiliate, err := ac.tapfiliate.CreateAffiliate(ctx, payload)
	if err != nil {
		return vendorFailure(c, err)
	}
	log.Printf("[%s] Affiliate %s created", services.RequestIDFromContext(ctx), affiliate.ID)

	ac.linkParent(ctx, affiliate.ID.String(), req.ParentID.String())

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Affiliate created",
		Data: map[string]interface{}{
			"affiliate_id": affiliate.ID,
		},
	})
}

// finalizeAffiliate completes the profile of an affiliate created earlier and
// enrolls it in a program. Only the enrollment can fail the request.
func (ac *AffiliateController) finalizeAffiliate(c echo.Context, ctx context.Context, req *models.AffiliateRequest) error {
	if done, err := ac.requireFields(c, req, "AffiliateID", "Program"); done {
		return err
	}
	affiliateID := req.AffiliateID.String()
	programID := ac.programs.Resolve(req.Program)
	requestID := services.RequestIDFromContext(ctx)

	customFields := ac.fields.Resolve(ctx, profileFieldValues(req))

	if patch := utils.BuildProfilePatch(req, customFields); len(patch) > 0 {
		if err := ac.tapfiliate.UpdateAffiliate(ctx, affiliateID, patch); err != nil {
			log.Printf("[%s] Warning: profile update for affiliate %s failed, continuing: %v", requestID, affiliateID, err)
		}
	}

	ac.setWebsite(ctx, affiliateID, req.Metadata.Website)

	enrollment, err := ac.tapfiliate.EnrollInProgram(ctx, programID, affiliateID)
	if err != nil {
		log.Printf("[%s] ERROR: enrollment of affiliate %s in %s failed: %v", requestID, affiliateID, programID, err)
		return enrollmentFailure(c, err, messageFinalizeEnroll, map[string]interface{}{
			"affiliate_id": affiliateID,
		})
	}

	ac.linkParent(ctx, affiliateID, req.ParentID.String())

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Affiliate finalized",
		Data: map[string]interface{}{
			"affiliate_id": affiliateID,
			"enrollment":   enrollment,
		},
	})
}

// updateCustomFields changes the commission type of an existing affiliate
func (ac *AffiliateController) updateCustomFields(c echo.Context, ctx context.Context, req *models.AffiliateRequest) error {
	if done, err := ac.requireFields(c, req, "AffiliateID"); done {
		return err
	}
	affiliateID := req.AffiliateID.String()

	if req.CommissionType == "" {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "No custom fields supplied, nothing to update",
		})
	}

	customFields := ac.fields.Resolve(ctx, map[string]string{
		utils.LabelCommissionType: utils.NormalizeCommissionType(req.CommissionType),
	})
	if len(customFields) == 0 {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Commission type field is not configured in Tapfiliate, nothing to update",
		})
	}

	if err := ac.tapfiliate.UpdateAffiliate(ctx, affiliateID, utils.BuildCustomFieldsPatch(customFields)); err != nil {
		return vendorFailure(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Custom fields updated",
		Data: map[string]interface{}{
			"affiliate_id": affiliateID,
		},
	})
}

// legacySignup creates and enrolls an affiliate in one request
func (ac *AffiliateController) legacySignup(c echo.Context, ctx context.Context, req *models.AffiliateRequest) error {
	if done, err := ac.requireFields(c, req,
		"Program", "FirstName", "LastName", "Email", "Password", "City", "Country", "Company"); done {
		return err
	}
	programID := ac.programs.Resolve(req.Program)
	requestID := services.RequestIDFromContext(ctx)

	customFields := ac.fields.Resolve(ctx, creationFieldValues(req))
	payload := utils.BuildAffiliatePayload(req, customFields)

	affiliate, err := ac.tapfiliate.CreateAffiliate(ctx, payload)
	if err != nil {
		return vendorFailure(c, err)
	}
	affiliateID := affiliate.ID.String()
	log.Printf("[%s] Affiliate %s created", requestID, affiliateID)

	ac.setWebsite(ctx, affiliateID, req.Metadata.Website)

	enrollment, err := ac.tapfiliate.EnrollInProgram(ctx, programID, affiliateID)
	if err != nil {
		log.Printf("[%s] ERROR: enrollment of affiliate %s in %s failed: %v", requestID, affiliateID, programID, err)
		return enrollmentFailure(c, err, messageEnrollFailed, nil)
	}

	ac.linkParent(ctx, affiliateID, req.ParentID.String())

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Affiliate created and enrolled",
		Data: map[string]interface{}{
			"affiliate":  affiliate.Raw,
			"enrollment": enrollment,
		},
	})
}

// requireFields writes a 400 listing every missing field. done is true when
// the request has been answered.
func (ac *AffiliateController) requireFields(c echo.Context, req *models.AffiliateRequest, fields ...string) (bool, error) {
	// the password only counts as present if it is not blank
	check := *req
	check.Password = strings.TrimSpace(check.Password)

	missing, err := missingFields(ac.validate, &check, fields...)
	if err != nil {
		return true, err
	}
	if len(missing) == 0 {
		return false, nil
	}
	return true, c.JSON(http.StatusBadRequest, models.Response{
		Status:  http.StatusBadRequest,
		Message: "Missing required fields: " + strings.Join(missing, ", "),
		Missing: missing,
	})
}

// setWebsite stores the website meta-data. Failures are only logged.
func (ac *AffiliateController) setWebsite(ctx context.Context, affiliateID, website string) {
	if website == "" {
		return
	}
	if err := ac.tapfiliate.SetWebsite(ctx, affiliateID, website); err != nil {
		log.Printf("[%s] Warning: could not set website for affiliate %s: %v", services.RequestIDFromContext(ctx), affiliateID, err)
	}
}

// linkParent attaches the referring affiliate. Invalid parent ids and vendor
// failures are only logged.
func (ac *AffiliateController) linkParent(ctx context.Context, affiliateID, parentID string) {
	requestID := services.RequestIDFromContext(ctx)
	parent, ok := utils.ValidParentID(parentID)
	if !ok {
		if parentID != "" {
			log.Printf("[%s] Skipping parent link for affiliate %s, invalid parent id %q", requestID, affiliateID, parentID)
		}
		return
	}
	if parent == affiliateID {
		log.Printf("[%s] Skipping parent link, affiliate %s cannot be its own parent", requestID, affiliateID)
		return
	}
	if err := ac.tapfiliate.SetParent(ctx, affiliateID, parent); err != nil {
		log.Printf("[%s] Warning: could not link affiliate %s to parent %s: %v", requestID, affiliateID, parent, err)
		return
	}
	log.Printf("[%s] Affiliate %s linked to parent %s", requestID, affiliateID, parent)
}

// creationFieldValues returns the custom field values set on creation,
// keyed by label.
func creationFieldValues(req *models.AffiliateRequest) map[string]string {
	values := profileFieldValues(req)
	if req.CompanyType != "" {
		values[utils.LabelCompanyType] = utils.CompanyTypeLabel(req.CompanyType)
	}
	return values
}

// profileFieldValues returns the custom field values set when finalizing
func profileFieldValues(req *models.AffiliateRequest) map[string]string {
	values := map[string]string{}
	if req.CommissionType != "" {
		values[utils.LabelCommissionType] = utils.NormalizeCommissionType(req.CommissionType)
	}
	if req.WantsDemoCall != nil {
		values[utils.LabelDemoCall] = utils.DemoCallValue(bool(*req.WantsDemoCall))
	}
	return values
}

func decodeRequest(body io.Reader) (*models.AffiliateRequest, error) {
	var req models.AffiliateRequest
	if body == nil {
		return &req, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &req, nil
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// vendorFailure answers with the status Tapfiliate returned. Errors that are
// not vendor rejections are passed to the top level error handler.
func vendorFailure(c echo.Context, err error) error {
	var vendorErr *services.VendorError
	if errors.As(err, &vendorErr) {
		return c.JSON(vendorErr.Status, models.Response{
			Status:  vendorErr.Status,
			Message: vendorErr.Message,
		})
	}
	if errors.Is(err, services.ErrMissingAffiliateID) {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Affiliate service did not return an affiliate id",
		})
	}
	if errors.Is(err, services.ErrMissingAPIKey) {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: messageMissingCredentials,
		})
	}
	return err
}

// enrollmentFailure reports an affiliate that exists but is not enrolled
func enrollmentFailure(c echo.Context, err error, message string, data interface{}) error {
	status := http.StatusInternalServerError
	detail := err.Error()
	var vendorErr *services.VendorError
	if errors.As(err, &vendorErr) {
		status = vendorErr.Status
		detail = vendorErr.Message
	}
	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
		Data:    data,
		Error:   detail,
	})
}
