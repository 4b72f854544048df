package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"study-buddy-api/internal/application/ports"
	domain "study-buddy-api/internal/domain/membership"
	"study-buddy-api/internal/interface/api/rest/dto/membership"
	"study-buddy-api/internal/interface/api/rest/middleware"
	"study-buddy-api/internal/interface/api/rest/validator"
)

type MembershipController struct {
	membershipService ports.MembershipService
	logger            *zap.Logger
}

func NewMembershipController(
	r *gin.Engine,
	membershipService ports.MembershipService,
	logger *zap.Logger,
	tokens ports.TokenValidator,
) *MembershipController {
	mc := &MembershipController{
		membershipService: membershipService,
		logger:            logger,
	}

	auth := middleware.AuthMiddleware(tokens)

	r.GET(RouteGroupMembers, auth, mc.GetMembersHandler)
	r.PUT(RouteGroupMember, auth, mc.AddMemberHandler)
	r.DELETE(RouteGroupMember, auth, mc.DeactivateMemberHandler)

	return mc
}

func (mc *MembershipController) GetMembersHandler(c *gin.Context) {
	groupID, ok := pathUUID(c, "group_id")
	if !ok {
		return
	}

	ms, err := mc.membershipService.FindMembers(c.Request.Context(), middleware.RequesterID(c), groupID)
	if err != nil {
		respondError(c, mc.logger, "FindMembers()", "failed to get members", err)
		return
	}

	c.JSON(http.StatusOK, membership.ResponseData{
		Data: membership.ToResponseMemberships(ms),
	})
}

// AddMemberHandler is idempotent: an existing membership is returned as is, an inactive one is re-activated.
func (mc *MembershipController) AddMemberHandler(c *gin.Context) {
	groupID, ok := pathUUID(c, "group_id")
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}

	var req membership.Request
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid request body",
				"details": err.Error(),
			})
			return
		}
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": map[string]string{"role": "must be ADMIN, MODERATOR or MEMBER"},
		})
		return
	}

	m, err := mc.membershipService.AddMember(c.Request.Context(), middleware.RequesterID(c), groupID, userID, role)
	if err != nil {
		respondError(c, mc.logger, "AddMember()", "failed to add a member", err)
		return
	}

	c.JSON(http.StatusOK, membership.ToResponseMembership(*m))
}

func (mc *MembershipController) DeactivateMemberHandler(c *gin.Context) {
	groupID, ok := pathUUID(c, "group_id")
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}

	err := mc.membershipService.DeactivateMember(c.Request.Context(), middleware.RequesterID(c), groupID, userID)
	if err != nil {
		respondError(c, mc.logger, "DeactivateMember()", "failed to remove a member", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	ok, id := validator.IsUUID(c.Param(param))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": param + " must be a valid UUID"},
		)
		return uuid.Nil, false
	}

	return id, true
}
