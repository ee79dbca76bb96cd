package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vibast-solutions/ms-go-commerce/app/dto"
	"github.com/vibast-solutions/ms-go-commerce/app/entity"
	"github.com/vibast-solutions/ms-go-commerce/config"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailAlreadyRegistered = errors.New("user with this email already exists")
	ErrUserNotFound           = errors.New("user not found")
	ErrNoUsersFound           = errors.New("no users found")
	ErrEmailNotFound          = errors.New("no account registered with this email")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountBanned          = errors.New("account is banned")
	ErrPasswordMismatch       = errors.New("old password is incorrect")
	ErrConfirmationMismatch   = errors.New("new password and confirmation do not match")
	ErrInvalidAction          = errors.New("invalid action, use ban or unban")
	ErrEmailImmutable         = errors.New("email can not be updated")
)

const (
	userMediaFolder = "users"

	actionBan   = "ban"
	actionUnban = "unban"
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id bson.ObjectID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Search(ctx context.Context, search string, skip, limit int64) ([]entity.User, int64, error)
	Update(ctx context.Context, id bson.ObjectID, fields bson.M) (*entity.User, error)
	Delete(ctx context.Context, id bson.ObjectID) (*entity.User, error)
}

type mailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type mediaStore interface {
	Upload(ctx context.Context, filePath, folder string) (string, error)
	Delete(ctx context.Context, url string) error
}

type UserService interface {
	ProcessRegister(ctx context.Context, req *dto.RegisterRequest, imagePath string) (string, error)
	Activate(ctx context.Context, token string) (*entity.User, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*entity.User, string, error)
	ValidateSessionToken(tokenString string) (*SessionClaims, error)
	GetUsers(ctx context.Context, search string, page, limit int64) ([]entity.User, dto.Pagination, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	UpdateUser(ctx context.Context, id string, req *dto.UpdateUserRequest, imagePath string) (*entity.User, error)
	DeleteUser(ctx context.Context, id string) error
	ManageUser(ctx context.Context, id, action string) (*entity.User, string, error)
	UpdatePassword(ctx context.Context, id string, req *dto.UpdatePasswordRequest) (*entity.User, error)
	ForgetPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
}

type AsyncRunner func(task func())

type UserServiceOption func(*userService)

type userService struct {
	userRepo    userRepository
	mailer      mailSender
	media       mediaStore
	cfg         *config.Config
	asyncRunner AsyncRunner
}

func NewUserService(
	userRepo userRepository,
	mailer mailSender,
	media mediaStore,
	cfg *config.Config,
	opts ...UserServiceOption,
) UserService {
	svc := &userService{
		userRepo: userRepo,
		mailer:   mailer,
		media:    media,
		cfg:      cfg,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithAsyncRunner(runner AsyncRunner) UserServiceOption {
	return func(s *userService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

// ProcessRegister issues an activation token carrying the submitted fields
// and mails the activation link. Nothing is persisted until the token is
// redeemed, so unverified registrations leave no trace.
func (s *userService) ProcessRegister(ctx context.Context, req *dto.RegisterRequest, imagePath string) (string, error) {
	exists, err := s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrEmailAlreadyRegistered
	}

	claims := &ActivationClaims{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		Phone:            req.Phone,
		Address:          req.Address,
		Image:            imagePath,
		RegisteredClaims: registeredClaims(s.cfg.ActivationTokenTTL),
	}

	token, err := signToken(claims, s.cfg.JWTActivationSecret)
	if err != nil {
		return "", err
	}

	s.sendMailAsync(req.Email, "Account Activation Email", fmt.Sprintf(
		"<h2>Hello %s!</h2><p>Please click the link to <a href=%q target=\"_blank\">activate your account</a>.</p>",
		req.Name,
		fmt.Sprintf("%s/api/users/activate/%s", s.cfg.ClientURL, token),
	))

	return token, nil
}

// Activate redeems an activation token. Redemption is the idempotency
// boundary: email ownership is re-checked here because time has passed since
// issuance, and a second redemption for an already-activated email fails.
func (s *userService) Activate(ctx context.Context, token string) (*entity.User, error) {
	claims := &ActivationClaims{}
	if err := parseToken(token, s.cfg.JWTActivationSecret, claims); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.EmailExists(ctx, claims.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyRegistered
	}

	imageURL := ""
	if claims.Image != "" {
		// Upload failure aborts activation; a record without its image
		// would be a partial state.
		imageURL, err = s.media.Upload(ctx, claims.Image, userMediaFolder)
		if err != nil {
			return nil, err
		}
		if removeErr := os.Remove(claims.Image); removeErr != nil {
			logrus.WithError(removeErr).WithField("path", claims.Image).Warn("Failed to remove staged image")
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(claims.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Name:         claims.Name,
		Email:        claims.Email,
		PasswordHash: string(hashedPassword),
		Phone:        claims.Phone,
		Address:      claims.Address,
		Image:        imageURL,
		IsAdmin:      false,
		IsBanned:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		// The unique email index resolves the race where another redemption
		// completed between the existence check and this insert.
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}

	return user, nil
}

func (s *userService) Login(ctx context.Context, req *dto.LoginRequest) (*entity.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if user.IsBanned {
		return nil, "", ErrAccountBanned
	}

	claims := &SessionClaims{
		UserID:           user.ID.Hex(),
		IsAdmin:          user.IsAdmin,
		RegisteredClaims: registeredClaims(s.cfg.SessionTokenTTL),
	}
	claims.Subject = user.Email

	token, err := signToken(claims, s.cfg.JWTSessionSecret)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *userService) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := parseToken(tokenString, s.cfg.JWTSessionSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *userService) GetUsers(ctx context.Context, search string, page, limit int64) ([]entity.User, dto.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 5
	}

	users, count, err := s.userRepo.Search(ctx, search, (page-1)*limit, limit)
	if err != nil {
		return nil, dto.Pagination{}, err
	}
	if len(users) == 0 {
		return nil, dto.Pagination{}, ErrNoUsersFound
	}

	return users, dto.NewPagination(count, page, limit), nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user, err := s.userRepo.FindByID(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req *dto.UpdateUserRequest, imagePath string) (*entity.User, error) {
	if req.Email != "" {
		return nil, ErrEmailImmutable
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Phone != "" {
		fields["phone"] = req.Phone
	}
	if req.Address != "" {
		fields["address"] = req.Address
	}

	if imagePath != "" {
		imageURL, uploadErr := s.media.Upload(ctx, imagePath, userMediaFolder)
		if uploadErr != nil {
			return nil, uploadErr
		}
		if removeErr := os.Remove(imagePath); removeErr != nil {
			logrus.WithError(removeErr).WithField("path", imagePath).Warn("Failed to remove staged image")
		}
		fields["image"] = imageURL

		if user.Image != "" {
			s.deleteMediaAsync(user.Image)
		}
	}

	updated, err := s.userRepo.Update(ctx, user.ID, fields)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}
	return updated, nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}

	// Delete matches non-admin accounts only; admin targets come back nil.
	user, err := s.userRepo.Delete(ctx, objectID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if user.Image != "" {
		s.deleteMediaAsync(user.Image)
	}
	return nil
}

func (s *userService) ManageUser(ctx context.Context, id, action string) (*entity.User, string, error) {
	var banned bool
	var message string
	switch action {
	case actionBan:
		banned = true
		message = "user was banned successfully"
	case actionUnban:
		banned = false
		message = "user was unbanned successfully"
	default:
		return nil, "", ErrInvalidAction
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, "", ErrUserNotFound
	}

	user, err := s.userRepo.Update(ctx, objectID, bson.M{"is_banned": banned})
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrUserNotFound
	}
	return user, message, nil
}

func (s *userService) UpdatePassword(ctx context.Context, id string, req *dto.UpdatePasswordRequest) (*entity.User, error) {
	if req.NewPassword != req.ConfirmedPassword {
		return nil, ErrConfirmationMismatch
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return nil, ErrPasswordMismatch
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	updated, err := s.userRepo.Update(ctx, user.ID, bson.M{"password_hash": string(hashedPassword)})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}
	return updated, nil
}

func (s *userService) ForgetPassword(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrEmailNotFound
	}

	claims := &ResetClaims{
		Email:            user.Email,
		RegisteredClaims: registeredClaims(s.cfg.ResetTokenTTL),
	}

	token, err := signToken(claims, s.cfg.JWTResetSecret)
	if err != nil {
		return "", err
	}

	s.sendMailAsync(user.Email, "Password Reset Email", fmt.Sprintf(
		"<h2>Hello %s!</h2><p>Please click the link to <a href=%q target=\"_blank\">reset your password</a>.</p>",
		user.Name,
		fmt.Sprintf("%s/api/users/reset-password/%s", s.cfg.ClientURL, token),
	))

	return token, nil
}

func (s *userService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	claims := &ResetClaims{}
	if err := parseToken(req.Token, s.cfg.JWTResetSecret, claims); err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(ctx, claims.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	updated, err := s.userRepo.Update(ctx, user.ID, bson.M{"password_hash": string(hashedPassword)})
	if err != nil {
		return err
	}
	if updated == nil {
		return ErrUserNotFound
	}
	return nil
}

// sendMailAsync dispatches mail fire-and-forget: delivery failures are
// logged and never block or fail the calling state transition.
func (s *userService) sendMailAsync(to, subject, body string) {
	s.asyncRunner(func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.mailer.Send(sendCtx, to, subject, body); err != nil {
			logrus.WithError(err).WithField("to", to).Error("Failed to send email")
		}
	})
}

// deleteMediaAsync removes a stored image best effort; the owning record is
// already gone or repointed, so failures are only logged.
func (s *userService) deleteMediaAsync(url string) {
	s.asyncRunner(func() {
		deleteCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.media.Delete(deleteCtx, url); err != nil {
			logrus.WithError(err).WithField("url", url).Error("Failed to delete media file")
		}
	})
}
