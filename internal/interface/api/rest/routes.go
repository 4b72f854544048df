package rest

const (
	// api
	RouteApiV1 = "/api/v1"

	// resources
	RouteResources          = RouteApiV1 + "/resources"
	RouteResourceTypes      = RouteResources + "/types"
	RouteResourceCategories = RouteResources + "/categories"
	RouteMyResources        = RouteResources + "/my"
	RouteResource           = RouteResources + "/:resource_id"
	RouteResourceFile       = RouteResource + "/file"
	RouteResourceDownload   = RouteResource + "/download"

	// groups
	RouteGroupMembers = RouteApiV1 + "/groups/:group_id/members"
	RouteGroupMember  = RouteGroupMembers + "/:user_id"

	// ops
	RouteHealth  = RouteApiV1 + "/healthz"
	RouteMetrics = RouteApiV1 + "/metrics"
)
