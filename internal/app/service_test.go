package app

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"testing"
	"time"

	"cusp/api/internal/auth"
	"cusp/api/internal/authpw"
	"cusp/api/internal/chat"
	"cusp/api/internal/search"
	"cusp/api/internal/store"
)

// fakeStore implements dataStore (and the authpw user store) with
// per-method hooks. Unset hooks return zero values; lookups miss with
// sql.ErrNoRows.
type fakeStore struct {
	pingFn func(context.Context) error

	getUserFn        func(context.Context, int64) (store.User, error)
	getUserByEmailFn func(context.Context, string) (store.User, error)
	listUsersFn      func(context.Context) ([]store.User, error)
	updateUserFn     func(context.Context, store.User) error
	softDeleteUserFn func(context.Context, int64) error

	insertUserFn         func(context.Context, store.User) (int64, error)
	updateUserPasswordFn func(context.Context, int64, string) error
	emailTakenFn         func(context.Context, string, int64) (bool, error)
	phoneTakenFn         func(context.Context, string, int64) (bool, error)
	usernameTakenFn      func(context.Context, string, int64) (bool, error)

	getTagFn        func(context.Context, int64) (store.Tag, error)
	getTagByNameFn  func(context.Context, string) (store.Tag, error)
	listTagsFn      func(context.Context) ([]store.Tag, error)
	insertTagFn     func(context.Context, string, string) (int64, error)
	updateTagFn     func(context.Context, int64, string, string) error
	softDeleteTagFn func(context.Context, int64) error

	insertPostFn func(context.Context, store.Post) (int64, error)
	getPostFn    func(context.Context, int64) (store.Post, error)
	listPostsFn  func(context.Context) ([]store.Post, error)

	insertCommentFn       func(context.Context, int64, int64, string) (int64, error)
	refreshCommentCountFn func(context.Context, int64) (int, error)
	listCommentsFn        func(context.Context) ([]store.Comment, error)
	getCommentFn          func(context.Context, int64) ([]store.Comment, error)
	listCommentsByPostFn  func(context.Context, int64) ([]store.Comment, error)
	softDeleteCommentFn   func(context.Context, int64) error
	insertReplyFn         func(context.Context, int64, int64, int64, string) (store.Reply, error)
	listRepliesFn         func(context.Context, int64) ([]store.Reply, error)
	softDeleteReplyFn     func(context.Context, int64) error
	upsertLikeFn          func(context.Context, int64, int64, bool) (int, error)

	insertEventFn      func(context.Context, store.Event) (int64, error)
	listEventsFn       func(context.Context) ([]store.Event, error)
	getEventFn         func(context.Context, int64) (store.Event, error)
	updateEventFn      func(context.Context, store.Event) error
	softDeleteEventFn  func(context.Context, int64) error
	registerForEventFn func(context.Context, int64, int64) error

	insertCourseFn     func(context.Context, store.Course) (int64, error)
	getCourseFn        func(context.Context, int64) (store.Course, error)
	listCoursesFn      func(context.Context) ([]store.Course, error)
	updateCourseFn     func(context.Context, store.Course) error
	softDeleteCourseFn func(context.Context, int64) error
	insertLessonFn     func(context.Context, store.Lesson) (int64, error)
	getLessonFn        func(context.Context, int64) (store.Lesson, error)
	listLessonsFn      func(context.Context, int64) ([]store.Lesson, error)
	updateLessonFn     func(context.Context, store.Lesson) error
	softDeleteLessonFn func(context.Context, int64) error

	insertDocumentFn     func(context.Context, store.Document) (int64, error)
	getDocumentFn        func(context.Context, int64) (store.Document, error)
	listDocumentsFn      func(context.Context) ([]store.Document, error)
	updateDocumentFn     func(context.Context, store.Document) error
	softDeleteDocumentFn func(context.Context, int64) error

	insertDirectoryEntryFn     func(context.Context, store.DirectoryEntry) (int64, error)
	getDirectoryEntryFn        func(context.Context, int64) (store.DirectoryEntry, error)
	listDirectoryFn            func(context.Context) ([]store.DirectoryEntry, error)
	updateDirectoryEntryFn     func(context.Context, store.DirectoryEntry) error
	softDeleteDirectoryEntryFn func(context.Context, int64) error

	insertToolFn     func(context.Context, store.Tool) (int64, error)
	getToolFn        func(context.Context, int64) (store.Tool, error)
	listToolsFn      func(context.Context) ([]store.Tool, error)
	updateToolFn     func(context.Context, store.Tool) error
	softDeleteToolFn func(context.Context, int64) error

	insertValuationFn func(context.Context, store.ValuationEntry) (int64, error)
	getValuationFn    func(context.Context, int64) (store.ValuationEntry, error)
	listValuationsFn  func(context.Context) ([]store.ValuationEntry, error)

	insertMessageFn    func(context.Context, store.ChatMessage) (int64, error)
	listConversationFn func(context.Context, int64, int64) ([]store.ChatMessage, error)
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

func (f *fakeStore) GetUser(ctx context.Context, id int64) (store.User, error) {
	if f.getUserFn != nil {
		return f.getUserFn(ctx, id)
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if f.getUserByEmailFn != nil {
		return f.getUserByEmailFn(ctx, email)
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]store.User, error) {
	if f.listUsersFn != nil {
		return f.listUsersFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, u store.User) error {
	if f.updateUserFn != nil {
		return f.updateUserFn(ctx, u)
	}
	return nil
}

func (f *fakeStore) SoftDeleteUser(ctx context.Context, id int64) error {
	if f.softDeleteUserFn != nil {
		return f.softDeleteUserFn(ctx, id)
	}
	return nil
}

func (f *fakeStore) InsertUser(ctx context.Context, u store.User) (int64, error) {
	if f.insertUserFn != nil {
		return f.insertUserFn(ctx, u)
	}
	return 1, nil
}

func (f *fakeStore) UpdateUserPassword(ctx context.Context, id int64, hash string) error {
	if f.updateUserPasswordFn != nil {
		return f.updateUserPasswordFn(ctx, id, hash)
	}
	return nil
}

func (f *fakeStore) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	if f.emailTakenFn != nil {
		return f.emailTakenFn(ctx, email, excludeID)
	}
	return false, nil
}

func (f *fakeStore) PhoneTaken(ctx context.Context, phone string, excludeID int64) (bool, error) {
	if f.phoneTakenFn != nil {
		return f.phoneTakenFn(ctx, phone, excludeID)
	}
	return false, nil
}

func (f *fakeStore) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	if f.usernameTakenFn != nil {
		return f.usernameTakenFn(ctx, username, excludeID)
	}
	return false, nil
}

func (f *fakeStore) GetTag(ctx context.Context, id int64) (store.Tag, error) {
	if f.getTagFn != nil {
		return f.getTagFn(ctx, id)
	}
	return store.Tag{}, sql.ErrNoRows
}

func (f *fakeStore) GetTagByName(ctx context.Context, name string) (store.Tag, error) {
	if f.getTagByNameFn != nil {
		return f.getTagByNameFn(ctx, name)
	}
	return store.Tag{}, sql.ErrNoRows
}

func (f *fakeStore) ListTags(ctx context.Context) ([]store.Tag, error) {
	if f.listTagsFn != nil {
		return f.listTagsFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) InsertTag(ctx context.Context, name, description string) (int64, error) {
	if f.insertTagFn != nil {
		return f.insertTagFn(ctx, name, description)
	}
	return 1, nil
}

func (f *fakeStore) UpdateTag(ctx context.Context, id int64, name, description string) error {
	if f.updateTagFn != nil {
		return f.updateTagFn(ctx, id, name, description)
	}
	return nil
}

func (f *fakeStore) SoftDeleteTag(ctx context.Context, id int64) error {
	if f.softDeleteTagFn != nil {
		return f.softDeleteTagFn(ctx, id)
	}
	return nil
}

func (f *fakeStore) InsertPost(ctx context.Context, p store.Post) (int64, error) {
	if f.insertPostFn != nil {
		return f.insertPostFn(ctx, p)
	}
	return 1, nil
}

func (f *fakeStore) GetPost(ctx context.Context, id int64) (store.Post, error) {
	if f.getPostFn != nil {
		return f.getPostFn(ctx, id)
	}
	return store.Post{}, sql.ErrNoRows
}

func (f *fakeStore) ListPosts(ctx context.Context) ([]store.Post, error) {
	if f.listPostsFn != nil {
		return f.listPostsFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) InsertComment(ctx context.Context, postID, userID int64, text string) (int64, error) {
	if f.insertCommentFn != nil {
		return f.insertCommentFn(ctx, postID, userID, text)
	}
	return 1, nil
}

func (f *fakeStore) RefreshCommentCount(ctx context.Context, postID int64) (int, error) {
	if f.refreshCommentCountFn != nil {
		return f.refreshCommentCountFn(ctx, postID)
	}
	return 0, nil
}

func (f *fakeStore) ListComments(ctx context.Context) ([]store.Comment, error) {
	if f.listCommentsFn != nil {
		return f.listCommentsFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) GetComment(ctx context.Context, id int64) ([]store.Comment, error) {
	if f.getCommentFn != nil {
		return f.getCommentFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeStore) ListCommentsByPost(ctx context.Context, postID int64) ([]store.Comment, error) {
	if f.listCommentsByPostFn != nil {
		return f.listCommentsByPostFn(ctx, postID)
	}
	return nil, nil
}

func (f *fakeStore) SoftDeleteComment(ctx context.Context, id int64) error {
	if f.softDeleteCommentFn != nil {
		return f.softDeleteCommentFn(ctx, id)
	}
	return nil
}

func (f *fakeStore) InsertReply(ctx context.Context, commentID, userID, postID int64, text string) (store.Reply, error) {
	if f.insertReplyFn != nil {
		return f.insertReplyFn(ctx, commentID, userID, postID, text)
	}
	return store.Reply{}, nil
}

func (f *fakeStore) ListReplies(ctx context.Context, commentID int64) ([]store.Reply, error) {
	if f.listRepliesFn != nil {
		return f.listRepliesFn(ctx, commentID)
	}
	return nil, nil
}

func (f *fakeStore) SoftDeleteReply(ctx context.Context, id int64) error {
	if f.softDeleteReplyFn != nil {
		return f.softDeleteReplyFn(ctx, id)
	}
	return nil
}

func (f *fakeStore) UpsertLike(ctx context.Context, postID, userID int64, liked bool) (int, error) {
	if f.upsertLikeFn != nil {
		return f.upsertLikeFn(ctx, postID, userID, liked)
	}
	return 0, nil
}

func (f *fakeStore) InsertEvent(ctx context.Context, e store.Event) (int64, error) {
	if f.insertEventFn != nil {
		return f.insertEventFn(ctx, e)
	}
	return 1, nil
}

func (f *fakeStore) ListEvents(ctx context.Context) ([]store.Event, error) {
	if f.listEventsFn != nil {
		return f.listEventsFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) GetEvent(ctx context.Context, id int64) (store.Event, error) {
	if f.getEventFn != nil {
		return f.getEventFn(ctx, id)
	}
	return store.Event{}, sql.ErrNoRows
}

func (f *fakeStore) UpdateEvent(ctx context.Context, e store.Event) error {
	if f.updateEventFn != nil {
		return f.updateEventFn(ctx, e)
	}
	return nil
}

func (f *fakeStore) SoftDeleteEvent(ctx context.Context, id int64) error {
	if f.softDeleteEventFn != nil {
		return f.softDeleteEventFn(ctx, id)
	}
	return nil
}

func (f *fakeStore) RegisterForEvent(ctx context.Context, eventID, userID int64) error {
	if f.registerForEventFn != nil {
		return f.registerForEventFn(ctx, eventID, userID)
	}
	return nil
}

func (f *fakeStore) InsertCourse(ctx context.Context, c store.Course) (int64, error) {
	if f.insertCourseFn != nil {
		return f.insertCourseFn(ctx, c)
	}
	return 1, nil
}

func (f *fakeStore) GetCourse(ctx context.Context, id int64) (store.Course, error) {
	if f.getCourseFn != nil {
		return f.getCourseFn(ctx, id)
	}
	return store.Course{}, sql.ErrNoRows
}

func (f *fakeStore) ListCourses(ctx context.Context) ([]store.Course, error) {
	if f.listCoursesFn != nil {
		return f.listCoursesFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) UpdateCourse(ctx context.Context, c store.Course) error {
	if f.updateCourseFn != nil {
		return f.updateCourseFn(ctx, c)
	}
	return nil
}

func (f *fakeStore) SoftDeleteCourse(ctx context.Context, id int64) error {
	if f.softDeleteCourseFn != nil {
		return f.softDeleteCourseFn(ctx, id)
	}
	return nil
}

func (f *fakeStore) InsertLesson(ctx context.Context, l store.Lesson) (int64, error) {
	if f.insertLessonFn != nil {
		return f.insertLessonFn(ctx, l)
	}
	return 1, nil
}

func (f *fakeStore) GetLesson(ctx context.Context, id int64) (store.Lesson, error) {
	if f.getLessonFn != nil {
		return f.getLessonFn(ctx, id)
	}
	return store.Lesson{}, sql.ErrNoRows
}

func (f *fakeStore) ListLessons(ctx context.Context, courseID int64) ([]store.Lesson, error) {
	if f.listLessonsFn != nil {
		return f.listLessonsFn(ctx, courseID)
	}
	return nil, nil
}

func (f *fakeStore) UpdateLesson(ctx context.Context, l store.Lesson) error {
	if f.updateLessonFn != nil {
		return f.updateLessonFn(ctx, l)
	}
	return nil
}

func (f *fakeStore) SoftDeleteLesson(ctx context.Context, id int64) error {
	if f.softDeleteLessonFn != nil {
		return f.softDeleteLessonFn(ctx, id)
	}
	return nil
}

func (f *fakeStore) InsertDocument(ctx context.Context, d store.Document) (int64, error) {
	if f.insertDocumentFn != nil {
		return f.insertDocumentFn(ctx, d)
	}
	return 1, nil
}

func (f *fakeStore) GetDocument(ctx context.Context, id int64) (store.Document, error) {
	if f.getDocumentFn != nil {
		return f.getDocumentFn(ctx, id)
	}
	return store.Document{}, sql.ErrNoRows
}

func (f *fakeStore) ListDocuments(ctx context.Context) ([]store.Document, error) {
	if f.listDocumentsFn != nil {
		return f.listDocumentsFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) UpdateDocument(ctx context.Context, d store.Document) error {
	if f.updateDocumentFn != nil {
		return f.updateDocumentFn(ctx, d)
	}
	return nil
}

func (f *fakeStore) SoftDeleteDocument(ctx context.Context, id int64) error {
	if f.softDeleteDocumentFn != nil {
		return f.softDeleteDocumentFn(ctx, id)
	}
	return nil
}

func (f *fakeStore) InsertDirectoryEntry(ctx context.Context, d store.DirectoryEntry) (int64, error) {
	if f.insertDirectoryEntryFn != nil {
		return f.insertDirectoryEntryFn(ctx, d)
	}
	return 1, nil
}

func (f *fakeStore) GetDirectoryEntry(ctx context.Context, id int64) (store.DirectoryEntry, error) {
	if f.getDirectoryEntryFn != nil {
		return f.getDirectoryEntryFn(ctx, id)
	}
	return store.DirectoryEntry{}, sql.ErrNoRows
}

func (f *fakeStore) ListDirectory(ctx context.Context) ([]store.DirectoryEntry, error) {
	if f.listDirectoryFn != nil {
		return f.listDirectoryFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) UpdateDirectoryEntry(ctx context.Context, d store.DirectoryEntry) error {
	if f.updateDirectoryEntryFn != nil {
		return f.updateDirectoryEntryFn(ctx, d)
	}
	return nil
}

func (f *fakeStore) SoftDeleteDirectoryEntry(ctx context.Context, id int64) error {
	if f.softDeleteDirectoryEntryFn != nil {
		return f.softDeleteDirectoryEntryFn(ctx, id)
	}
	return nil
}

func (f *fakeStore) InsertTool(ctx context.Context, t store.Tool) (int64, error) {
	if f.insertToolFn != nil {
		return f.insertToolFn(ctx, t)
	}
	return 1, nil
}

func (f *fakeStore) GetTool(ctx context.Context, id int64) (store.Tool, error) {
	if f.getToolFn != nil {
		return f.getToolFn(ctx, id)
	}
	return store.Tool{}, sql.ErrNoRows
}

func (f *fakeStore) ListTools(ctx context.Context) ([]store.Tool, error) {
	if f.listToolsFn != nil {
		return f.listToolsFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) UpdateTool(ctx context.Context, t store.Tool) error {
	if f.updateToolFn != nil {
		return f.updateToolFn(ctx, t)
	}
	return nil
}

func (f *fakeStore) SoftDeleteTool(ctx context.Context, id int64) error {
	if f.softDeleteToolFn != nil {
		return f.softDeleteToolFn(ctx, id)
	}
	return nil
}

func (f *fakeStore) InsertValuation(ctx context.Context, v store.ValuationEntry) (int64, error) {
	if f.insertValuationFn != nil {
		return f.insertValuationFn(ctx, v)
	}
	return 1, nil
}

func (f *fakeStore) GetValuation(ctx context.Context, id int64) (store.ValuationEntry, error) {
	if f.getValuationFn != nil {
		return f.getValuationFn(ctx, id)
	}
	return store.ValuationEntry{}, sql.ErrNoRows
}

func (f *fakeStore) ListValuations(ctx context.Context) ([]store.ValuationEntry, error) {
	if f.listValuationsFn != nil {
		return f.listValuationsFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) InsertMessage(ctx context.Context, m store.ChatMessage) (int64, error) {
	if f.insertMessageFn != nil {
		return f.insertMessageFn(ctx, m)
	}
	return 1, nil
}

func (f *fakeStore) ListConversation(ctx context.Context, a, b int64) ([]store.ChatMessage, error) {
	if f.listConversationFn != nil {
		return f.listConversationFn(ctx, a, b)
	}
	return nil, nil
}

// fakeOTPStore keeps reset codes in memory.
type fakeOTPStore struct {
	mu    sync.Mutex
	codes map[string]string
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{codes: make(map[string]string)}
}

func (f *fakeOTPStore) SetOTP(_ context.Context, email, code string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[email] = code
	return nil
}

func (f *fakeOTPStore) GetOTP(_ context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.codes[email]
	if !ok {
		return "", sql.ErrNoRows
	}
	return code, nil
}

func (f *fakeOTPStore) DeleteOTP(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.codes, email)
	return nil
}

// fakeSearch records indexed posts without doing anything.
type fakeSearch struct {
	mu      sync.Mutex
	indexed []search.PostRecord
}

func (f *fakeSearch) Search(search.Query) search.Response {
	return search.Response{Results: []search.Result{}}
}

func (f *fakeSearch) IndexPost(p search.PostRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, p)
}

func (f *fakeSearch) DeletePost(int64) {}

// fakeUploads returns a predictable URL per saved file.
type fakeUploads struct {
	mu      sync.Mutex
	saved   []string
	removed []string
}

func (f *fakeUploads) Save(_ context.Context, originalName, _ string, _ io.Reader, _ int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, originalName)
	return "/uploads/" + originalName, nil
}

func (f *fakeUploads) Remove(_ context.Context, publicURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, publicURL)
	return nil
}

func testCipher() *chat.Cipher {
	c, err := chat.NewCipher(
		[]byte("12345678901234567890123456789012"),
		[]byte("1234567890123456"),
	)
	if err != nil {
		panic(err)
	}
	return c
}

func newTestService(fs *fakeStore) *Service {
	return &Service{
		store:     fs,
		authpw:    authpw.NewService(fs, newFakeOTPStore(), nil, 15*time.Minute),
		search:    &fakeSearch{},
		uploads:   &fakeUploads{},
		cipher:    testCipher(),
		secret:    []byte("test-secret"),
		accessTTL: time.Hour,
	}
}

func newTestServer(fs *fakeStore) *HTTPServer {
	svc := newTestService(fs)
	hub := chat.NewHub(svc.cipher, &ChatStore{store: fs}, svc)
	return NewHTTPServer(svc, hub, "", "*")
}

func testToken(t *testing.T, userID int64) string {
	t.Helper()
	token, err := auth.IssueToken([]byte("test-secret"), userID, "ana", "ana@gmail.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token
}
