package app

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"cusp/api/internal/auth"
	"cusp/api/internal/authpw"
	"cusp/api/internal/chat"
	"cusp/api/internal/config"
	"cusp/api/internal/search"
	"cusp/api/internal/store"
	"cusp/api/internal/upload"
	"cusp/api/internal/validate"
)

type Session struct {
	Token     string
	UserID    int64
	Username  string
	Email     string
	ExpiresAt time.Time
}

type dataStore interface {
	Ping(context.Context) error

	GetUser(context.Context, int64) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	ListUsers(context.Context) ([]store.User, error)
	UpdateUser(context.Context, store.User) error
	SoftDeleteUser(context.Context, int64) error

	GetTag(context.Context, int64) (store.Tag, error)
	GetTagByName(context.Context, string) (store.Tag, error)
	ListTags(context.Context) ([]store.Tag, error)
	InsertTag(context.Context, string, string) (int64, error)
	UpdateTag(context.Context, int64, string, string) error
	SoftDeleteTag(context.Context, int64) error

	InsertPost(context.Context, store.Post) (int64, error)
	GetPost(context.Context, int64) (store.Post, error)
	ListPosts(context.Context) ([]store.Post, error)

	InsertComment(context.Context, int64, int64, string) (int64, error)
	RefreshCommentCount(context.Context, int64) (int, error)
	ListComments(context.Context) ([]store.Comment, error)
	GetComment(context.Context, int64) ([]store.Comment, error)
	ListCommentsByPost(context.Context, int64) ([]store.Comment, error)
	SoftDeleteComment(context.Context, int64) error
	InsertReply(context.Context, int64, int64, int64, string) (store.Reply, error)
	ListReplies(context.Context, int64) ([]store.Reply, error)
	SoftDeleteReply(context.Context, int64) error
	UpsertLike(context.Context, int64, int64, bool) (int, error)

	InsertEvent(context.Context, store.Event) (int64, error)
	ListEvents(context.Context) ([]store.Event, error)
	GetEvent(context.Context, int64) (store.Event, error)
	UpdateEvent(context.Context, store.Event) error
	SoftDeleteEvent(context.Context, int64) error
	RegisterForEvent(context.Context, int64, int64) error

	InsertCourse(context.Context, store.Course) (int64, error)
	GetCourse(context.Context, int64) (store.Course, error)
	ListCourses(context.Context) ([]store.Course, error)
	UpdateCourse(context.Context, store.Course) error
	SoftDeleteCourse(context.Context, int64) error
	InsertLesson(context.Context, store.Lesson) (int64, error)
	GetLesson(context.Context, int64) (store.Lesson, error)
	ListLessons(context.Context, int64) ([]store.Lesson, error)
	UpdateLesson(context.Context, store.Lesson) error
	SoftDeleteLesson(context.Context, int64) error

	InsertDocument(context.Context, store.Document) (int64, error)
	GetDocument(context.Context, int64) (store.Document, error)
	ListDocuments(context.Context) ([]store.Document, error)
	UpdateDocument(context.Context, store.Document) error
	SoftDeleteDocument(context.Context, int64) error

	InsertDirectoryEntry(context.Context, store.DirectoryEntry) (int64, error)
	GetDirectoryEntry(context.Context, int64) (store.DirectoryEntry, error)
	ListDirectory(context.Context) ([]store.DirectoryEntry, error)
	UpdateDirectoryEntry(context.Context, store.DirectoryEntry) error
	SoftDeleteDirectoryEntry(context.Context, int64) error

	InsertTool(context.Context, store.Tool) (int64, error)
	GetTool(context.Context, int64) (store.Tool, error)
	ListTools(context.Context) ([]store.Tool, error)
	UpdateTool(context.Context, store.Tool) error
	SoftDeleteTool(context.Context, int64) error

	InsertValuation(context.Context, store.ValuationEntry) (int64, error)
	GetValuation(context.Context, int64) (store.ValuationEntry, error)
	ListValuations(context.Context) ([]store.ValuationEntry, error)

	InsertMessage(context.Context, store.ChatMessage) (int64, error)
	ListConversation(context.Context, int64, int64) ([]store.ChatMessage, error)
}

// searchService is what the HTTP layer needs from the search facade.
type searchService interface {
	Search(q search.Query) search.Response
	IndexPost(p search.PostRecord)
	DeletePost(id int64)
}

type Service struct {
	store     dataStore
	authpw    *authpw.Service
	search    searchService
	uploads   upload.Store
	cipher    *chat.Cipher
	secret    []byte
	accessTTL time.Duration
	mailerOn  bool
}

func NewService(cfg config.Config, st dataStore, pw *authpw.Service, sr searchService, up upload.Store, cipher *chat.Cipher, mailerOn bool) *Service {
	return &Service{
		store:     st,
		authpw:    pw,
		search:    sr,
		uploads:   up,
		cipher:    cipher,
		secret:    []byte(cfg.JWTSecret),
		accessTTL: cfg.AccessTTL,
		mailerOn:  mailerOn,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// issueSession mints an access token for the user.
func (s *Service) issueSession(user store.User) (Session, error) {
	token, err := auth.IssueToken(s.secret, user.ID, user.Username, user.Email, s.accessTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(s.accessTTL),
	}, nil
}

func (s *Service) SessionFromToken(token string) (Session, error) {
	claims, err := auth.ParseToken(s.secret, token)
	if err != nil {
		return Session{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:    token,
		UserID:   userID,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}

// Verify implements chat.TokenVerifier for the WebSocket handshake.
func (s *Service) Verify(token string) (int64, error) {
	session, err := s.SessionFromToken(token)
	if err != nil {
		return 0, err
	}
	return session.UserID, nil
}

type RegisterInput struct {
	Username     string
	Email        string
	Phone        string
	Password     string
	JobTitle     string
	CompanyName  string
	ProfilePhoto string
	Timezone     string
	Language     string
	Headline     string
	TagID        string
	Que1         string
	Que2         string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if in.Username == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		return Session{}, domainError(http.StatusBadRequest, "MISSING_FIELDS", "username, email, phone and password are required", nil)
	}
	if !validate.Gmail(in.Email) {
		return Session{}, domainError(http.StatusUnprocessableEntity, "INVALID_EMAIL", "Only gmail.com addresses are accepted", nil)
	}
	if !validate.Phone(in.Phone) {
		return Session{}, domainError(http.StatusUnprocessableEntity, "INVALID_PHONE", "Phone must be exactly 10 digits", nil)
	}
	if !validate.Password(in.Password) {
		return Session{}, domainError(http.StatusUnprocessableEntity, "INVALID_PASSWORD", "Password needs 6+ chars with a letter, a digit and a special character", nil)
	}

	user := store.User{
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		JobTitle:     in.JobTitle,
		CompanyName:  in.CompanyName,
		ProfilePhoto: in.ProfilePhoto,
		Timezone:     in.Timezone,
		Language:     in.Language,
		Headline:     in.Headline,
		TagID:        in.TagID,
		Que1:         in.Que1,
		Que2:         in.Que2,
	}
	id, err := s.authpw.Register(ctx, user, in.Password)
	if err != nil {
		switch err {
		case authpw.ErrEmailTaken:
			return Session{}, domainError(http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
		case authpw.ErrPhoneTaken:
			return Session{}, domainError(http.StatusConflict, "PHONE_EXISTS", "Phone already registered", nil)
		case authpw.ErrUsernameTaken:
			return Session{}, domainError(http.StatusConflict, "USERNAME_EXISTS", "Username already taken", nil)
		}
		return Session{}, err
	}
	user.ID = id
	return s.issueSession(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if email == "" || password == "" {
		return Session{}, domainError(http.StatusBadRequest, "MISSING_FIELDS", "email and password are required", nil)
	}
	user, err := s.authpw.Login(ctx, email, password)
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	}
	return s.issueSession(user)
}

// ForgotPassword starts the OTP reset flow. When no mailer is
// configured the code comes back to the caller, mirroring how
// development setups run without SMTP.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", domainError(http.StatusBadRequest, "MISSING_FIELDS", "email is required", nil)
	}
	code, err := s.authpw.ForgotPassword(ctx, email)
	if err != nil {
		if err == authpw.ErrInvalidCredentials {
			return "", domainError(http.StatusNotFound, "NOT_FOUND", "No account for that email", nil)
		}
		return "", err
	}
	if s.mailerOn {
		return "", nil
	}
	return code, nil
}

func (s *Service) ChangePassword(ctx context.Context, email, otp, newPassword string) error {
	if email == "" || otp == "" || newPassword == "" {
		return domainError(http.StatusBadRequest, "MISSING_FIELDS", "email, otp and password are required", nil)
	}
	if !validate.Password(newPassword) {
		return domainError(http.StatusUnprocessableEntity, "INVALID_PASSWORD", "Password needs 6+ chars with a letter, a digit and a special character", nil)
	}
	if err := s.authpw.ChangePassword(ctx, email, otp, newPassword); err != nil {
		if err == authpw.ErrInvalidOTP {
			return domainError(http.StatusUnauthorized, "INVALID_OTP", "Invalid or expired code", nil)
		}
		return err
	}
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, session Session, updated store.User) (store.User, error) {
	current, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		return store.User{}, err
	}
	if updated.Username == "" {
		updated.Username = current.Username
	}
	if updated.Email == "" {
		updated.Email = current.Email
	} else if !validate.Gmail(updated.Email) {
		return store.User{}, domainError(http.StatusUnprocessableEntity, "INVALID_EMAIL", "Only gmail.com addresses are accepted", nil)
	}
	if updated.Phone == "" {
		updated.Phone = current.Phone
	} else if !validate.Phone(updated.Phone) {
		return store.User{}, domainError(http.StatusUnprocessableEntity, "INVALID_PHONE", "Phone must be exactly 10 digits", nil)
	}
	if updated.JobTitle == "" {
		updated.JobTitle = current.JobTitle
	}
	if updated.CompanyName == "" {
		updated.CompanyName = current.CompanyName
	}
	if updated.ProfilePhoto == "" {
		updated.ProfilePhoto = current.ProfilePhoto
	}
	if updated.Timezone == "" {
		updated.Timezone = current.Timezone
	}
	if updated.Language == "" {
		updated.Language = current.Language
	}
	if updated.Headline == "" {
		updated.Headline = current.Headline
	}
	if updated.TagID == "" {
		updated.TagID = current.TagID
	}
	if updated.Que1 == "" {
		updated.Que1 = current.Que1
	}
	if updated.Que2 == "" {
		updated.Que2 = current.Que2
	}
	updated.ID = session.UserID

	if err := s.store.UpdateUser(ctx, updated); err != nil {
		return store.User{}, err
	}
	return s.store.GetUser(ctx, session.UserID)
}

// CreateTag rejects duplicate names rather than relying on a unique index.
func (s *Service) CreateTag(ctx context.Context, name, description string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domainError(http.StatusBadRequest, "MISSING_FIELDS", "name is required", nil)
	}
	if _, err := s.store.GetTagByName(ctx, name); err == nil {
		return 0, domainError(http.StatusConflict, "TAG_EXISTS", "Tag already exists", nil)
	} else if err != sql.ErrNoRows {
		return 0, err
	}
	return s.store.InsertTag(ctx, name, description)
}

// CreatePost inserts the post and pushes it to the search index.
func (s *Service) CreatePost(ctx context.Context, session Session, title, content, tagID string) (store.Post, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return store.Post{}, domainError(http.StatusBadRequest, "MISSING_FIELDS", "title and content are required", nil)
	}
	post := store.Post{Title: title, Content: content, UserID: session.UserID, TagID: tagID}
	id, err := s.store.InsertPost(ctx, post)
	if err != nil {
		return store.Post{}, err
	}
	created, err := s.store.GetPost(ctx, id)
	if err != nil {
		return store.Post{}, err
	}
	if s.search != nil {
		s.search.IndexPost(search.PostRecord{
			ID:      created.ID,
			Title:   created.Title,
			Content: created.Content,
			TagID:   created.TagID,
			UserID:  created.UserID,
		})
	}
	return created, nil
}

func (s *Service) AddComment(ctx context.Context, session Session, postID int64, text string) (int64, int, error) {
	if postID == 0 || strings.TrimSpace(text) == "" {
		return 0, 0, domainError(http.StatusBadRequest, "MISSING_FIELDS", "post_id and comment_text are required", nil)
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return 0, 0, err
	}
	id, err := s.store.InsertComment(ctx, postID, session.UserID, text)
	if err != nil {
		return 0, 0, err
	}
	total, err := s.store.RefreshCommentCount(ctx, postID)
	if err != nil {
		return 0, 0, err
	}
	return id, total, nil
}

func (s *Service) AddReply(ctx context.Context, session Session, commentID, postID int64, text string) (store.Reply, error) {
	if commentID == 0 || strings.TrimSpace(text) == "" {
		return store.Reply{}, domainError(http.StatusBadRequest, "MISSING_FIELDS", "comment_id and reply_text are required", nil)
	}
	return s.store.InsertReply(ctx, commentID, session.UserID, postID, text)
}

// SetLikeStatus records a like/unlike and returns the fresh counter.
func (s *Service) SetLikeStatus(ctx context.Context, session Session, postID int64, liked bool) (int, error) {
	if postID == 0 {
		return 0, domainError(http.StatusBadRequest, "MISSING_FIELDS", "post_id is required", nil)
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return 0, err
	}
	return s.store.UpsertLike(ctx, postID, session.UserID, liked)
}
