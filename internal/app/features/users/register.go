package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/bloodbridge/bloodbridge/internal/app/services/registration"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/app/system/inputval"
	"github.com/bloodbridge/bloodbridge/internal/app/system/normalize"
	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.uber.org/zap"
)

// addUserInput is the add-user payload. Unknown keys are ignored.
type addUserInput struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password"`

	Name               string `json:"name"`
	Image              string `json:"image"`
	Role               string `json:"role"`
	BloodGroup         string `json:"bloodGroup"`
	District           string `json:"district"`
	Upazila            string `json:"upazila"`
	Phone              string `json:"phone"`
	AvailabilityStatus string `json:"availabilityStatus"`

	Status              string                      `json:"status"`
	Gender              string                      `json:"gender"`
	UrgencyLevel        string                      `json:"urgencyLevel"`
	LastDonationDate    interface{}                 `json:"lastDonationDate"`
	HealthAssessment    interface{}                 `json:"healthAssessment"`
	ReminderPreferences *models.ReminderPreferences `json:"reminderPreferences"`
}

func (in addUserInput) candidate() registration.Candidate {
	return registration.Candidate{
		Email:    in.Email,
		Password: in.Password,
		Profile: models.ProfilePatch{
			models.FieldName:               in.Name,
			models.FieldImage:              in.Image,
			models.FieldRole:               in.Role,
			models.FieldBloodGroup:         in.BloodGroup,
			models.FieldDistrict:           in.District,
			models.FieldUpazila:            in.Upazila,
			models.FieldPhone:              in.Phone,
			models.FieldAvailabilityStatus: in.AvailabilityStatus,
		},
		Status:              in.Status,
		Gender:              in.Gender,
		UrgencyLevel:        in.UrgencyLevel,
		LastDonationDate:    in.LastDonationDate,
		HealthAssessment:    in.HealthAssessment,
		ReminderPreferences: in.ReminderPreferences,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /add-user                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleAddUser registers, claims, or bumps an account. All three outcomes
// answer 200; the body's outcome field says which happened.
func (h *Handler) HandleAddUser(w http.ResponseWriter, r *http.Request) {
	var in addUserInput
	if err := httpjson.Decode(w, r, &in); err != nil && !errors.Is(err, httpjson.ErrEmptyBody) {
		httpjson.Message(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		httpjson.Message(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	result, err := h.Registration.Register(ctx, in.candidate())
	if err != nil {
		h.Log.Error("add-user failed", zap.Error(err))
		httpjson.Message(w, http.StatusInternalServerError, MsgCreateFailed)
		return
	}

	h.Metrics.Registration(string(result.Outcome))
	if result.Outcome != registration.OutcomeExisting {
		h.AuditLog.UserRegistered(ctx, r, result.UserID.Hex(), normalize.Email(in.Email), result.Outcome == registration.OutcomeClaimed)
	}
	httpjson.OK(w, result)
}
