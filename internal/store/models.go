package store

import "time"

// User mirrors the cusp_user table. The tag_id/post_id/comment_id/rewards_id/
// save_id columns hold comma-separated id lists rather than join tables.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	JobTitle     string    `json:"job_title"`
	CompanyName  string    `json:"company_name"`
	ProfilePhoto string    `json:"profile_photo"`
	Timezone     string    `json:"timezone"`
	Language     string    `json:"language"`
	Headline     string    `json:"headline"`
	TagID        string    `json:"tag_id"`
	PostID       string    `json:"post_id"`
	CommentID    string    `json:"comment_id"`
	RewardsID    string    `json:"rewards_id"`
	SaveID       string    `json:"save_id"`
	Que1         string    `json:"que1"`
	Que2         string    `json:"que2"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Tag struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserID    int64     `json:"user_id"`
	TagID     string    `json:"tag_id"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Reply struct {
	ID            int64     `json:"id"`
	CommentID     int64     `json:"comment_id"`
	ReplyUserID   int64     `json:"reply_user_id"`
	ReplyUsername string    `json:"reply_username"`
	ReplyText     string    `json:"reply_text"`
	PostID        int64     `json:"post_id,omitempty"`
	PostTitle     string    `json:"post_title,omitempty"`
	CommentText   string    `json:"comment_text,omitempty"`
	CreatedAt     time.Time `json:"reply_created_at"`
}

type Comment struct {
	ID          int64     `json:"id"`
	PostID      int64     `json:"post_id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	PostTitle   string    `json:"post_title"`
	CommentText string    `json:"comment_text"`
	CreatedAt   time.Time `json:"created_at"`
	Replies     []Reply   `json:"replies"`
}

type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	LocationURL string    `json:"location_url"`
	EventLink   string    `json:"event_link"`
	EventImage  string    `json:"event_image"`
	Tags        []string  `json:"event_tags"`
	Attendees   []int64   `json:"user_registered_in_this_event"`
	CreatedAt   time.Time `json:"created_at"`
}

type Course struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	LessonsCount int       `json:"lessons_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Lesson struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CourseID    int64     `json:"course_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Document struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FilePath    string    `json:"file_path"`
	FileType    string    `json:"file_type"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DirectoryEntry is a business-directory listing with a contact person.
type DirectoryEntry struct {
	ID           int64     `json:"id"`
	PlaceName    string    `json:"place_name"`
	Location     string    `json:"location"`
	LocationURL  string    `json:"location_url"`
	ContactName  string    `json:"p_name"`
	ContactEmail string    `json:"p_email"`
	ContactPhoto string    `json:"p_photo"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Tool struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	ImageURL    string    `json:"img_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValuationEntry is one practice-valuation intake submission. The two
// multi-select fields are stored as comma-separated strings.
type ValuationEntry struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	SiteSize            string `json:"siteSize"`
	DentalChairs        string `json:"dentalChairs"`
	PracticeType        string `json:"practiceType"`
	InteriorFinish      string `json:"interiorFinish"`
	LocationType        string `json:"locationType"`
	LocationOther       string `json:"locationOther"`
	UnitCondition       string `json:"unitCondition"`
	EquipmentCondition  string `json:"equipmentCondition"`
	EquipmentNeeded     string `json:"-"`
	SpecialistEquipment string `json:"-"`
}

// ChatMessage rows hold the confidentiality-transformed payload; decryption
// happens at the service boundary, never in SQL.
type ChatMessage struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Message    string    `json:"message"`
	Time       time.Time `json:"time"`
}
