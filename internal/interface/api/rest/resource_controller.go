package rest

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"study-buddy-api/internal/application/ports"
	domain "study-buddy-api/internal/domain/resource"
	"study-buddy-api/internal/interface/api/rest/dto/resource"
	"study-buddy-api/internal/interface/api/rest/middleware"
	"study-buddy-api/internal/interface/api/rest/validator"
)

var errFileTooLarge = errors.New("file too large")

type ResourceController struct {
	resourceService ports.ResourceService
	logger          *zap.Logger
	maxUploadBytes  int64
}

func NewResourceController(
	r *gin.Engine,
	resourceService ports.ResourceService,
	logger *zap.Logger,
	tokens ports.TokenValidator,
	maxUploadBytes int64,
) *ResourceController {
	rc := &ResourceController{
		resourceService: resourceService,
		logger:          logger,
		maxUploadBytes:  maxUploadBytes,
	}

	optional := middleware.OptionalAuthMiddleware(tokens)
	auth := middleware.AuthMiddleware(tokens)

	r.GET(RouteResources, optional, rc.GetResourcesHandler)
	r.GET(RouteResourceTypes, rc.GetResourceTypesHandler)
	r.GET(RouteResourceCategories, rc.GetCatalogCategoriesHandler)
	r.GET(RouteMyResources, auth, rc.GetMyResourcesHandler)
	r.GET(RouteResource, optional, rc.GetResourceHandler)
	r.GET(RouteResourceDownload, optional, rc.DownloadResourceHandler)
	r.POST(RouteResources, auth, rc.CreateResourceHandler)
	r.PATCH(RouteResource, auth, rc.UpdateResourceHandler)
	r.PUT(RouteResourceFile, auth, rc.ReplaceFileHandler)
	r.DELETE(RouteResource, auth, rc.DeleteResourceHandler)

	return rc
}

func (rc *ResourceController) GetResourcesHandler(c *gin.Context) {
	f, errs := validator.ParseResourceFilter(c.Request.URL.Query())
	if errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid query",
			"details": errs,
		})
		return
	}

	requester := middleware.RequesterID(c)
	rs, err := rc.resourceService.FindResources(c.Request.Context(), requester, f)
	if err != nil {
		respondError(c, rc.logger, "FindResources()", "failed to get resources", err)
		return
	}

	c.JSON(http.StatusOK, resource.ResponseData{
		Data: resource.ToResponseResources(rs, requester),
	})
}

func (rc *ResourceController) GetResourceTypesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, resource.ToResponseTypes())
}

func (rc *ResourceController) GetCatalogCategoriesHandler(c *gin.Context) {
	cs, err := rc.resourceService.FindCatalogCategories(c.Request.Context())
	if err != nil {
		respondError(c, rc.logger, "FindCatalogCategories()", "failed to get categories", err)
		return
	}

	c.JSON(http.StatusOK, resource.ToResponseCatalog(cs))
}

func (rc *ResourceController) GetMyResourcesHandler(c *gin.Context) {
	f, errs := validator.ParseResourceFilter(c.Request.URL.Query())
	if errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid query",
			"details": errs,
		})
		return
	}

	requester := middleware.RequesterID(c)
	rs, err := rc.resourceService.FindMyResources(c.Request.Context(), requester, f)
	if err != nil {
		respondError(c, rc.logger, "FindMyResources()", "failed to get resources", err)
		return
	}

	c.JSON(http.StatusOK, resource.ResponseData{
		Data: resource.ToResponseResources(rs, requester),
	})
}

func (rc *ResourceController) GetResourceHandler(c *gin.Context) {
	id, ok := resourceID(c)
	if !ok {
		return
	}

	requester := middleware.RequesterID(c)
	r, err := rc.resourceService.FindResource(c.Request.Context(), requester, id)
	if err != nil {
		respondError(c, rc.logger, "FindResource()", "failed to get a resource", err)
		return
	}

	c.JSON(http.StatusOK, resource.ToResponseResource(*r, requester))
}

func (rc *ResourceController) CreateResourceHandler(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": map[string]string{"file": "this field is required"},
		})
		return
	}
	file, err := rc.readUpload(fh)
	if err != nil {
		rc.respondUploadError(c, err)
		return
	}

	details := make(map[string]string)
	lists := make(map[string][]uuid.UUID, 3)
	for _, field := range []string{"groups", "categories", "tags"} {
		ids, ok := validator.ParseUUIDList(c.PostFormArray(field))
		if !ok {
			details[field] = "must be a list of valid UUIDs"
			continue
		}
		lists[field] = ids
	}
	if len(details) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": details,
		})
		return
	}

	requester := middleware.RequesterID(c)
	r, err := rc.resourceService.CreateResource(c.Request.Context(), requester, domain.Upload{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    domain.Category(c.PostForm("category")),
		Visibility:  domain.Visibility(c.PostForm("visibility")),
		GroupIDs:    lists["groups"],
		CategoryIDs: lists["categories"],
		TagIDs:      lists["tags"],
		File:        file,
	})
	if err != nil {
		respondError(c, rc.logger, "CreateResource()", "failed to create a resource", err)
		return
	}

	c.JSON(http.StatusCreated, resource.ToResponseResource(*r, requester))
}

func (rc *ResourceController) UpdateResourceHandler(c *gin.Context) {
	id, ok := resourceID(c)
	if !ok {
		return
	}

	var req resource.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	requester := middleware.RequesterID(c)
	r, err := rc.resourceService.UpdateResource(c.Request.Context(), requester, id, resource.ToDomainUpdate(req))
	if err != nil {
		respondError(c, rc.logger, "UpdateResource()", "failed to update a resource", err)
		return
	}

	c.JSON(http.StatusOK, resource.ToResponseResource(*r, requester))
}

func (rc *ResourceController) ReplaceFileHandler(c *gin.Context) {
	id, ok := resourceID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": map[string]string{"file": "this field is required"},
		})
		return
	}
	file, err := rc.readUpload(fh)
	if err != nil {
		rc.respondUploadError(c, err)
		return
	}

	requester := middleware.RequesterID(c)
	r, err := rc.resourceService.ReplaceFile(c.Request.Context(), requester, id, file)
	if err != nil {
		respondError(c, rc.logger, "ReplaceFile()", "failed to replace the file", err)
		return
	}

	c.JSON(http.StatusOK, resource.ToResponseResource(*r, requester))
}

func (rc *ResourceController) DeleteResourceHandler(c *gin.Context) {
	id, ok := resourceID(c)
	if !ok {
		return
	}

	err := rc.resourceService.DeleteResource(c.Request.Context(), middleware.RequesterID(c), id)
	if err != nil {
		respondError(c, rc.logger, "DeleteResource()", "failed to delete a resource", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (rc *ResourceController) DownloadResourceHandler(c *gin.Context) {
	id, ok := resourceID(c)
	if !ok {
		return
	}

	dl, err := rc.resourceService.DownloadResource(c.Request.Context(), middleware.RequesterID(c), id)
	if err != nil {
		respondError(c, rc.logger, "DownloadResource()", "failed to download a resource", err)
		return
	}
	defer dl.Content.Close()

	c.DataFromReader(
		http.StatusOK,
		int64(dl.Resource.SizeBytes),
		dl.ContentType,
		dl.Content,
		map[string]string{"Content-Disposition": contentDisposition(dl.Resource.File.Name)},
	)
}

// readUpload reads at most maxUploadBytes; the header size is only a first check since clients can lie.
func (rc *ResourceController) readUpload(fh *multipart.FileHeader) (domain.FileUpload, error) {
	if fh.Size > rc.maxUploadBytes {
		return domain.FileUpload{}, errFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return domain.FileUpload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, rc.maxUploadBytes+1))
	if err != nil {
		return domain.FileUpload{}, err
	}
	if int64(len(data)) > rc.maxUploadBytes {
		return domain.FileUpload{}, errFileTooLarge
	}

	return domain.FileUpload{
		Name:         fh.Filename,
		Data:         data,
		DeclaredSize: fh.Size,
	}, nil
}

func (rc *ResourceController) respondUploadError(c *gin.Context, err error) {
	if errors.Is(err, errFileTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read the uploaded file"})
	rc.logger.Warn("read upload error", zap.Error(err))
}

func resourceID(c *gin.Context) (uuid.UUID, bool) {
	return pathUUID(c, "resource_id")
}
