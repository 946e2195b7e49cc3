package http

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"campus-board/internal/domain"
	"campus-board/internal/repository"
	"campus-board/internal/service"
	"campus-board/internal/storage"
)

const apiBase = "/api/v1"

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	posts    service.PostService
	comments service.CommentService
	schools  service.SchoolService
	storage  storage.Service
	bucket   string
	prefix   string
	logger   *logrus.Logger

	defaultLimit int
	maxLimit     int

	postCfg    ResourceConfig
	commentCfg ResourceConfig
	schoolCfg  ResourceConfig
}

// Options carries handler construction parameters beyond the services.
type Options struct {
	Storage      storage.Service
	Bucket       string
	KeyPrefix    string
	Logger       *logrus.Logger
	DefaultLimit int
	MaxLimit     int
}

// NewHandler builds the handler and validates every resource
// configuration. A bad whitelist is a startup error, never a request
// time surprise.
func NewHandler(
	users service.UserService,
	posts service.PostService,
	comments service.CommentService,
	schools service.SchoolService,
	opts Options,
) (*Handler, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 100
	}

	h := &Handler{
		users:        users,
		posts:        posts,
		comments:     comments,
		schools:      schools,
		storage:      opts.Storage,
		bucket:       opts.Bucket,
		prefix:       opts.KeyPrefix,
		logger:       opts.Logger,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
		postCfg: ResourceConfig{
			Name: "post",
			AllowedMethods: map[string]bool{
				http.MethodGet:    true,
				http.MethodPost:   true,
				http.MethodDelete: true,
			},
			FilterableFields: map[string]FilterCapability{
				"school":               FilterExact,
				"school__email_domain": FilterExact,
				"date":                 FilterDate,
			},
			OrderableFields: map[string]string{
				"date": "pub_date",
			},
		},
		commentCfg: ResourceConfig{
			Name: "comment",
			AllowedMethods: map[string]bool{
				http.MethodGet:    true,
				http.MethodPost:   true,
				http.MethodDelete: true,
			},
			FilterableFields: map[string]FilterCapability{
				"post": FilterExact,
				"date": FilterDate,
			},
			OrderableFields: map[string]string{
				"date": "pub_date",
			},
		},
		schoolCfg: ResourceConfig{
			Name: "school",
			AllowedMethods: map[string]bool{
				http.MethodGet: true,
			},
			FilterableFields: map[string]FilterCapability{},
			OrderableFields:  map[string]string{},
		},
	}

	for _, cfg := range []ResourceConfig{h.postCfg, h.commentCfg, h.schoolCfg} {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": true, "message": "method not allowed"})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": true, "message": "not found"})
	})

	api := router.Group(apiBase)

	api.POST("/auth/register/", h.register)
	api.POST("/auth/user/login/", h.login)
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	authed := api.Group("", h.apiKeyAuth())
	{
		if h.postCfg.AllowedMethods[http.MethodGet] {
			authed.GET("/post/", h.listPosts)
			authed.GET("/post/:id/", h.getPost)
			authed.GET("/post/search/", h.searchPosts)
			authed.GET("/post/:id/attachment/", h.listAttachments)
		}
		if h.postCfg.AllowedMethods[http.MethodPost] {
			authed.POST("/post/", h.createPost)
			authed.POST("/post/:id/attachment/", h.uploadAttachment)
		}
		if h.postCfg.AllowedMethods[http.MethodDelete] {
			authed.DELETE("/post/:id/", h.deletePost)
		}

		if h.schoolCfg.AllowedMethods[http.MethodGet] {
			authed.GET("/school/", h.listSchools)
			authed.GET("/school/:id/", h.getSchool)
		}

		if h.commentCfg.AllowedMethods[http.MethodGet] {
			authed.GET("/comment/", h.listComments)
			authed.GET("/comment/:id/", h.getComment)
		}
		if h.commentCfg.AllowedMethods[http.MethodPost] {
			authed.POST("/comment/", h.createComment)
		}
		if h.commentCfg.AllowedMethods[http.MethodDelete] {
			authed.DELETE("/comment/:id/", h.deleteComment)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type registerRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	result, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   true,
				"message": authFailedMessage,
			})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"error":      false,
		"first_name": result.User.FirstName,
		"last_name":  result.User.LastName,
		"email":      result.User.Email,
		"token":      result.Token,
		"school":     result.SchoolID,
		"id":         result.User.ID,
	})
}

func (h *Handler) listPosts(c *gin.Context) {
	params, err := parseListParams(c, h.postCfg, h.defaultLimit, h.maxLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	filter, err := postFilterFromParams(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	posts, total, err := h.posts.List(c.Request.Context(), filter, repository.ListOptions{
		OrderBy:    params.orderBy,
		Descending: params.descending,
		Limit:      params.limit,
		Offset:     params.offset,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	objects := make([]PostResponse, len(posts))
	for i := range posts {
		objects[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"meta":    metaFor(params, total),
		"objects": objects,
	})
}

func (h *Handler) getPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

type createPostRequest struct {
	Title   string     `json:"title" binding:"required"`
	Body    string     `json:"body" binding:"required"`
	PubDate *time.Time `json:"pub_date"`
}

func (h *Handler) createPost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	user := currentUser(c)
	post, err := h.posts.Create(c.Request.Context(), user.ID, req.Title, req.Body, req.PubDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, postToResponse(*post))
}

func (h *Handler) deletePost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Remote attachment objects go first, best effort; the relational
	// delete cascades comments and attachment rows.
	var warnings []string
	if len(post.Attachments) > 0 && h.storage != nil && h.bucket != "" {
		prefix := h.objectKey(service.AttachmentPrefix(post.ID))
		if err := h.storage.DeletePrefix(c.Request.Context(), h.bucket, prefix); err != nil {
			warnings = append(warnings, fmt.Sprintf("delete remote attachments: %v", err))
		}
	}

	if err := h.posts.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{"deleted": id}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) searchPosts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "query parameter q is required"})
		return
	}

	params, err := parseListParams(c, ResourceConfig{
		Name:             "post-search",
		AllowedMethods:   map[string]bool{http.MethodGet: true},
		FilterableFields: map[string]FilterCapability{"q": FilterExact},
		OrderableFields:  map[string]string{},
	}, h.defaultLimit, h.maxLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	posts, total, err := h.posts.Search(c.Request.Context(), query, params.limit, params.offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	objects := make([]PostResponse, len(posts))
	for i := range posts {
		objects[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"meta":    metaFor(params, total),
		"objects": objects,
	})
}

func (h *Handler) listSchools(c *gin.Context) {
	schools, err := h.schools.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	objects := make([]SchoolResponse, 0, len(schools))
	for _, school := range schools {
		postIDs, err := h.schools.PostIDs(c.Request.Context(), school.ID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		objects = append(objects, schoolToResponse(school, postIDs))
	}
	c.JSON(http.StatusOK, gin.H{
		"meta":    Meta{Limit: len(objects), Offset: 0, TotalCount: int64(len(objects))},
		"objects": objects,
	})
}

func (h *Handler) getSchool(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	school, err := h.schools.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	postIDs, err := h.schools.PostIDs(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schoolToResponse(*school, postIDs))
}

func (h *Handler) listComments(c *gin.Context) {
	params, err := parseListParams(c, h.commentCfg, h.defaultLimit, h.maxLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	filter, err := commentFilterFromParams(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	comments, total, err := h.comments.List(c.Request.Context(), filter, repository.ListOptions{
		OrderBy:    params.orderBy,
		Descending: params.descending,
		Limit:      params.limit,
		Offset:     params.offset,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	objects := make([]CommentResponse, len(comments))
	for i := range comments {
		objects[i] = commentToResponse(comments[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"meta":    metaFor(params, total),
		"objects": objects,
	})
}

func (h *Handler) getComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	comment, err := h.comments.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commentToResponse(*comment))
}

type createCommentRequest struct {
	Post    int64      `json:"post" binding:"required"`
	Body    string     `json:"body" binding:"required"`
	PubDate *time.Time `json:"pub_date"`
}

func (h *Handler) createComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	user := currentUser(c)
	comment, err := h.comments.Create(c.Request.Context(), user.ID, req.Post, req.Body, req.PubDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentToResponse(*comment))
}

func (h *Handler) deleteComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) uploadAttachment(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "storage service not configured"})
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	if _, err := h.posts.Get(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "multipart file field is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close()

	key := h.objectKey(service.AttachmentKey(id, fileHeader.Filename))
	contentType := fileHeader.Header.Get("Content-Type")
	if _, err := h.storage.UploadObject(c.Request.Context(), h.bucket, key, file, contentType); err != nil {
		h.respondError(c, err)
		return
	}

	att, err := h.posts.AddAttachment(c.Request.Context(), id, key, fileHeader.Filename, fileHeader.Size, contentType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachmentToResponse(*att, nil))
}

func (h *Handler) listAttachments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	atts, err := h.posts.ListAttachments(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	objects := make([]AttachmentResponse, 0, len(atts))
	for _, att := range atts {
		var url *string
		if h.storage != nil && h.bucket != "" {
			signed, err := h.storage.GetObjectURL(c.Request.Context(), h.bucket, att.Key, 15*time.Minute)
			if err != nil {
				h.logger.Warnf("presign attachment %d: %v", att.ID, err)
			} else {
				url = &signed
			}
		}
		objects = append(objects, attachmentToResponse(att, url))
	}
	c.JSON(http.StatusOK, gin.H{"objects": objects})
}

// objectKey prepends the configured key prefix to an attachment key.
func (h *Handler) objectKey(key string) string {
	if h.prefix == "" {
		return key
	}
	return path.Join(h.prefix, key)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		validation *service.ValidationError
		conflict   *service.ConflictError
		notFound   *service.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": validation.Msg})
	case errors.As(err, &conflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": conflict.Msg})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": true, "message": notFound.Msg})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": true, "message": authFailedMessage})
	default:
		h.logger.Errorf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "internal server error"})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": true, "message": "not found"})
		return 0, false
	}
	return id, true
}

func postFilterFromParams(params listParams) (repository.PostFilter, error) {
	var filter repository.PostFilter
	for key, raw := range params.filters {
		switch key {
		case "school":
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return filter, fmt.Errorf("invalid school id %q", raw)
			}
			filter.SchoolID = &id
		case "school__email_domain":
			v := raw
			filter.SchoolEmailDomain = &v
		case "date":
			t, err := parseDateValue(raw)
			if err != nil {
				return filter, err
			}
			filter.DateOn = &t
		case "date__gte":
			t, err := parseDateValue(raw)
			if err != nil {
				return filter, err
			}
			filter.DateGTE = &t
		case "date__lte":
			t, err := parseDateValue(raw)
			if err != nil {
				return filter, err
			}
			filter.DateLTE = &t
		}
	}
	return filter, nil
}

func commentFilterFromParams(params listParams) (repository.CommentFilter, error) {
	var filter repository.CommentFilter
	for key, raw := range params.filters {
		switch key {
		case "post":
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return filter, fmt.Errorf("invalid post id %q", raw)
			}
			filter.PostID = &id
		case "date":
			t, err := parseDateValue(raw)
			if err != nil {
				return filter, err
			}
			filter.DateOn = &t
		case "date__gte":
			t, err := parseDateValue(raw)
			if err != nil {
				return filter, err
			}
			filter.DateGTE = &t
		case "date__lte":
			t, err := parseDateValue(raw)
			if err != nil {
				return filter, err
			}
			filter.DateLTE = &t
		}
	}
	return filter, nil
}

// Meta is the pagination envelope carried by every list response.
type Meta struct {
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	TotalCount int64 `json:"total_count"`
}

func metaFor(params listParams, total int64) Meta {
	return Meta{
		Limit:      params.limit,
		Offset:     params.offset,
		TotalCount: total,
	}
}

type UserResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	ResourceURI string `json:"resource_uri"`
}

type PostResponse struct {
	ID          int64                `json:"id"`
	Title       string               `json:"title"`
	Body        string               `json:"body"`
	PubDate     string               `json:"pub_date"`
	School      string               `json:"school"`
	Poster      UserResponse         `json:"poster"`
	Comments    []string             `json:"comments"`
	Attachments []AttachmentResponse `json:"attachments"`
	ResourceURI string               `json:"resource_uri"`
}

type CommentResponse struct {
	ID          int64        `json:"id"`
	Body        string       `json:"body"`
	PubDate     string       `json:"pub_date"`
	Post        string       `json:"post"`
	Commenter   UserResponse `json:"commenter"`
	ResourceURI string       `json:"resource_uri"`
}

type SchoolResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	EmailDomain string   `json:"email_domain"`
	Posts       []string `json:"posts"`
	ResourceURI string   `json:"resource_uri"`
}

type AttachmentResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Size        int64   `json:"size"`
	ContentType string  `json:"content_type"`
	CreatedAt   string  `json:"created_at"`
	DownloadURL *string `json:"download_url,omitempty"`
}

func resourceURI(resource string, id int64) string {
	return fmt.Sprintf("%s/%s/%d/", apiBase, resource, id)
}

func resourceURIs(resource string, ids []int64) []string {
	uris := make([]string, len(ids))
	for i, id := range ids {
		uris[i] = resourceURI(resource, id)
	}
	return uris
}

func userToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	// email is withheld from inlined users, matching the resource's
	// field exclusions
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		ResourceURI: resourceURI("auth/user", user.ID),
	}
}

func postToResponse(post domain.Post) PostResponse {
	atts := make([]AttachmentResponse, len(post.Attachments))
	for i, att := range post.Attachments {
		atts[i] = attachmentToResponse(att, nil)
	}
	return PostResponse{
		ID:          post.ID,
		Title:       post.Title,
		Body:        post.Body,
		PubDate:     post.PubDate.UTC().Format(time.RFC3339),
		School:      resourceURI("school", post.SchoolID),
		Poster:      userToResponse(post.Poster),
		Comments:    resourceURIs("comment", post.CommentIDs),
		Attachments: atts,
		ResourceURI: resourceURI("post", post.ID),
	}
}

func commentToResponse(comment domain.Comment) CommentResponse {
	return CommentResponse{
		ID:          comment.ID,
		Body:        comment.Body,
		PubDate:     comment.PubDate.UTC().Format(time.RFC3339),
		Post:        resourceURI("post", comment.PostID),
		Commenter:   userToResponse(comment.Commenter),
		ResourceURI: resourceURI("comment", comment.ID),
	}
}

func schoolToResponse(school domain.School, postIDs []int64) SchoolResponse {
	return SchoolResponse{
		ID:          school.ID,
		Name:        school.Name,
		EmailDomain: school.EmailDomain,
		Posts:       resourceURIs("post", postIDs),
		ResourceURI: resourceURI("school", school.ID),
	}
}

func attachmentToResponse(att domain.Attachment, downloadURL *string) AttachmentResponse {
	return AttachmentResponse{
		ID:          att.ID,
		Name:        att.Name,
		Size:        att.Size,
		ContentType: att.ContentType,
		CreatedAt:   att.CreatedAt.UTC().Format(time.RFC3339),
		DownloadURL: downloadURL,
	}
}
