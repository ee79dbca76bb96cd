package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-commerce/app/dto"
	"github.com/vibast-solutions/ms-go-commerce/app/entity"
	"github.com/vibast-solutions/ms-go-commerce/app/service"
	"github.com/vibast-solutions/ms-go-commerce/config"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users       map[string]*entity.User
	createCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (f *fakeUserRepo) add(user *entity.User) *entity.User {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	f.users[user.ID.Hex()] = user
	return user
}

func (f *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	f.createCalls++
	f.add(user)
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id bson.ObjectID) (*entity.User, error) {
	user, ok := f.users[id.Hex()]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, user := range f.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) Search(_ context.Context, search string, skip, limit int64) ([]entity.User, int64, error) {
	var matched []entity.User
	for _, user := range f.users {
		if user.IsAdmin {
			continue
		}
		term := strings.ToLower(search)
		if strings.Contains(strings.ToLower(user.Name), term) ||
			strings.Contains(strings.ToLower(user.Email), term) ||
			strings.Contains(user.Phone, search) {
			matched = append(matched, *user)
		}
	}
	count := int64(len(matched))
	if skip >= count {
		return nil, count, nil
	}
	matched = matched[skip:]
	if int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, count, nil
}

func (f *fakeUserRepo) Update(_ context.Context, id bson.ObjectID, fields bson.M) (*entity.User, error) {
	user, ok := f.users[id.Hex()]
	if !ok {
		return nil, nil
	}
	for key, value := range fields {
		switch key {
		case "name":
			user.Name = value.(string)
		case "phone":
			user.Phone = value.(string)
		case "address":
			user.Address = value.(string)
		case "image":
			user.Image = value.(string)
		case "password_hash":
			user.PasswordHash = value.(string)
		case "is_banned":
			user.IsBanned = value.(bool)
		case "updated_at":
			user.UpdatedAt = value.(time.Time)
		}
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id bson.ObjectID) (*entity.User, error) {
	user, ok := f.users[id.Hex()]
	if !ok || user.IsAdmin {
		return nil, nil
	}
	delete(f.users, id.Hex())
	return user, nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
}

func (f *fakeMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

type fakeMedia struct {
	uploads    []string
	deletes    []string
	failUpload error
}

func (f *fakeMedia) Upload(_ context.Context, filePath, folder string) (string, error) {
	if f.failUpload != nil {
		return "", f.failUpload
	}
	f.uploads = append(f.uploads, filePath)
	return "https://media.example.com/" + folder + "/uploaded.png", nil
}

func (f *fakeMedia) Delete(_ context.Context, url string) error {
	f.deletes = append(f.deletes, url)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		ClientURL:           "http://localhost:3000",
		JWTSessionSecret:    "session-secret",
		JWTActivationSecret: "activation-secret",
		JWTResetSecret:      "reset-secret",
		SessionTokenTTL:     15 * time.Minute,
		ActivationTokenTTL:  10 * time.Minute,
		ResetTokenTTL:       10 * time.Minute,
	}
}

type userServiceFixture struct {
	repo   *fakeUserRepo
	mailer *fakeMailer
	media  *fakeMedia
	cfg    *config.Config
	svc    service.UserService
}

func newUserService(cfg *config.Config) *userServiceFixture {
	f := &userServiceFixture{
		repo:   newFakeUserRepo(),
		mailer: &fakeMailer{},
		media:  &fakeMedia{},
		cfg:    cfg,
	}
	// Run async work inline so tests observe mail and media calls.
	f.svc = service.NewUserService(f.repo, f.mailer, f.media, cfg,
		service.WithAsyncRunner(func(task func()) { task() }))
	return f
}

func registerRequest() *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Name:     "Alice Example",
		Email:    "alice@x.com",
		Password: "secret123",
		Phone:    "0123456789",
		Address:  "1 Example Street",
	}
}

func TestProcessRegisterPersistsNothing(t *testing.T) {
	f := newUserService(testConfig())

	token, err := f.svc.ProcessRegister(context.Background(), registerRequest(), "")
	if err != nil {
		t.Fatalf("ProcessRegister failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected an activation token")
	}
	if f.repo.createCalls != 0 || len(f.repo.users) != 0 {
		t.Fatalf("expected no account before activation, got %d", len(f.repo.users))
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one activation mail, got %d", len(f.mailer.sent))
	}
	if f.mailer.sent[0].to != "alice@x.com" {
		t.Errorf("mail sent to %q", f.mailer.sent[0].to)
	}
	if !strings.Contains(f.mailer.sent[0].body, token) {
		t.Error("activation mail does not carry the token")
	}
}

func TestProcessRegisterRejectsActiveEmail(t *testing.T) {
	f := newUserService(testConfig())
	f.repo.add(&entity.User{Email: "alice@x.com"})

	_, err := f.svc.ProcessRegister(context.Background(), registerRequest(), "")
	if err != service.ErrEmailAlreadyRegistered {
		t.Fatalf("expected ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestActivateCreatesAccount(t *testing.T) {
	f := newUserService(testConfig())

	token, err := f.svc.ProcessRegister(context.Background(), registerRequest(), "")
	if err != nil {
		t.Fatalf("ProcessRegister failed: %v", err)
	}

	user, err := f.svc.Activate(context.Background(), token)
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if user.IsAdmin || user.IsBanned {
		t.Error("new account must not be admin or banned")
	}
	if user.PasswordHash == "secret123" {
		t.Fatal("password stored as plaintext")
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")); err != nil {
		t.Fatalf("stored hash does not verify the submitted password: %v", err)
	}
	if f.repo.createCalls != 1 {
		t.Fatalf("expected one create, got %d", f.repo.createCalls)
	}
}

func TestActivateTwiceConflicts(t *testing.T) {
	f := newUserService(testConfig())

	token, err := f.svc.ProcessRegister(context.Background(), registerRequest(), "")
	if err != nil {
		t.Fatalf("ProcessRegister failed: %v", err)
	}

	if _, err = f.svc.Activate(context.Background(), token); err != nil {
		t.Fatalf("first activation failed: %v", err)
	}
	if _, err = f.svc.Activate(context.Background(), token); err != service.ErrEmailAlreadyRegistered {
		t.Fatalf("expected ErrEmailAlreadyRegistered on second redemption, got %v", err)
	}
	if f.repo.createCalls != 1 {
		t.Fatalf("second redemption must not write, got %d creates", f.repo.createCalls)
	}
}

// Two tokens for the same email can be outstanding at once; redeeming the
// second after the first activated must conflict, not overwrite.
func TestActivateSecondTokenAfterFirstRedeemed(t *testing.T) {
	f := newUserService(testConfig())

	tokenA, err := f.svc.ProcessRegister(context.Background(), registerRequest(), "")
	if err != nil {
		t.Fatalf("ProcessRegister failed: %v", err)
	}
	tokenB, err := f.svc.ProcessRegister(context.Background(), registerRequest(), "")
	if err != nil {
		t.Fatalf("second ProcessRegister failed: %v", err)
	}

	if _, err = f.svc.Activate(context.Background(), tokenA); err != nil {
		t.Fatalf("activation of token A failed: %v", err)
	}
	if _, err = f.svc.Activate(context.Background(), tokenB); err != service.ErrEmailAlreadyRegistered {
		t.Fatalf("expected ErrEmailAlreadyRegistered for token B, got %v", err)
	}
}

func TestActivateExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.ActivationTokenTTL = -time.Minute
	f := newUserService(cfg)

	token, err := f.svc.ProcessRegister(context.Background(), registerRequest(), "")
	if err != nil {
		t.Fatalf("ProcessRegister failed: %v", err)
	}

	if _, err = f.svc.Activate(context.Background(), token); err != service.ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if f.repo.createCalls != 0 {
		t.Fatal("expired token must not create an account")
	}
}

func TestActivateInvalidToken(t *testing.T) {
	f := newUserService(testConfig())

	if _, err := f.svc.Activate(context.Background(), "not-a-token"); err != service.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestActivateUploadsStagedImage(t *testing.T) {
	f := newUserService(testConfig())

	staged := filepath.Join(t.TempDir(), "avatar.png")
	if err := os.WriteFile(staged, []byte("png"), 0o600); err != nil {
		t.Fatalf("failed to stage image: %v", err)
	}

	token, err := f.svc.ProcessRegister(context.Background(), registerRequest(), staged)
	if err != nil {
		t.Fatalf("ProcessRegister failed: %v", err)
	}

	user, err := f.svc.Activate(context.Background(), token)
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if user.Image != "https://media.example.com/users/uploaded.png" {
		t.Errorf("unexpected image url %q", user.Image)
	}
	if len(f.media.uploads) != 1 || f.media.uploads[0] != staged {
		t.Errorf("expected staged file to be uploaded, got %v", f.media.uploads)
	}
	if _, err = os.Stat(staged); !os.IsNotExist(err) {
		t.Error("staged file should be removed after upload")
	}
}

func TestActivateAbortsWhenUploadFails(t *testing.T) {
	f := newUserService(testConfig())
	f.media.failUpload = context.DeadlineExceeded

	token, err := f.svc.ProcessRegister(context.Background(), registerRequest(), "/tmp/staged.png")
	if err != nil {
		t.Fatalf("ProcessRegister failed: %v", err)
	}

	if _, err = f.svc.Activate(context.Background(), token); err == nil {
		t.Fatal("expected activation to fail when the upload fails")
	}
	if f.repo.createCalls != 0 {
		t.Fatal("failed upload must not leave a partial account")
	}
}

func activateUser(t *testing.T, f *userServiceFixture) *entity.User {
	t.Helper()
	token, err := f.svc.ProcessRegister(context.Background(), registerRequest(), "")
	if err != nil {
		t.Fatalf("ProcessRegister failed: %v", err)
	}
	user, err := f.svc.Activate(context.Background(), token)
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	return user
}

func TestLoginIssuesValidSession(t *testing.T) {
	f := newUserService(testConfig())
	user := activateUser(t, f)

	loggedIn, token, err := f.svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@x.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Error("login returned a different account")
	}

	claims, err := f.svc.ValidateSessionToken(token)
	if err != nil {
		t.Fatalf("session token does not validate: %v", err)
	}
	if claims.UserID != user.ID.Hex() {
		t.Errorf("session carries user id %q, want %q", claims.UserID, user.ID.Hex())
	}
	if claims.IsAdmin {
		t.Error("session must not claim admin for a regular account")
	}
}

func TestLoginFailures(t *testing.T) {
	f := newUserService(testConfig())
	activateUser(t, f)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"unknown email", "nobody@x.com", "secret123", service.ErrInvalidCredentials},
		{"wrong password", "alice@x.com", "wrong", service.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Login(context.Background(), &dto.LoginRequest{Email: tt.email, Password: tt.password})
			if err != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBanBlocksLoginUntilUnban(t *testing.T) {
	f := newUserService(testConfig())
	user := activateUser(t, f)

	if _, _, err := f.svc.ManageUser(context.Background(), user.ID.Hex(), "ban"); err != nil {
		t.Fatalf("ban failed: %v", err)
	}

	login := &dto.LoginRequest{Email: "alice@x.com", Password: "secret123"}
	if _, _, err := f.svc.Login(context.Background(), login); err != service.ErrAccountBanned {
		t.Fatalf("expected ErrAccountBanned, got %v", err)
	}

	if _, _, err := f.svc.ManageUser(context.Background(), user.ID.Hex(), "unban"); err != nil {
		t.Fatalf("unban failed: %v", err)
	}
	if _, _, err := f.svc.Login(context.Background(), login); err != nil {
		t.Fatalf("login after unban failed: %v", err)
	}
}

func TestManageUserRejectsUnknownAction(t *testing.T) {
	f := newUserService(testConfig())
	user := activateUser(t, f)

	_, _, err := f.svc.ManageUser(context.Background(), user.ID.Hex(), "suspend")
	if err != service.ErrInvalidAction {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	refreshed, _ := f.repo.FindByID(context.Background(), user.ID)
	if refreshed.IsBanned {
		t.Fatal("invalid action must not mutate the record")
	}
}

func TestUpdatePassword(t *testing.T) {
	f := newUserService(testConfig())
	user := activateUser(t, f)

	_, err := f.svc.UpdatePassword(context.Background(), user.ID.Hex(), &dto.UpdatePasswordRequest{
		OldPassword:       "secret123",
		NewPassword:       "newsecret",
		ConfirmedPassword: "different",
	})
	if err != service.ErrConfirmationMismatch {
		t.Fatalf("expected ErrConfirmationMismatch, got %v", err)
	}

	_, err = f.svc.UpdatePassword(context.Background(), user.ID.Hex(), &dto.UpdatePasswordRequest{
		OldPassword:       "wrong",
		NewPassword:       "newsecret",
		ConfirmedPassword: "newsecret",
	})
	if err != service.ErrPasswordMismatch {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	updated, err := f.svc.UpdatePassword(context.Background(), user.ID.Hex(), &dto.UpdatePasswordRequest{
		OldPassword:       "secret123",
		NewPassword:       "newsecret",
		ConfirmedPassword: "newsecret",
	})
	if err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}
	if err = bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newsecret")); err != nil {
		t.Fatalf("new password does not verify: %v", err)
	}
	if err = bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("secret123")); err == nil {
		t.Fatal("old password must no longer verify")
	}
}

func TestForgetAndResetPassword(t *testing.T) {
	f := newUserService(testConfig())
	user := activateUser(t, f)

	if _, err := f.svc.ForgetPassword(context.Background(), "nobody@x.com"); err != service.ErrEmailNotFound {
		t.Fatalf("expected ErrEmailNotFound, got %v", err)
	}

	// Two outstanding reset tokens are independently valid.
	tokenA, err := f.svc.ForgetPassword(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatalf("ForgetPassword failed: %v", err)
	}
	tokenB, err := f.svc.ForgetPassword(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatalf("second ForgetPassword failed: %v", err)
	}
	if len(f.mailer.sent) != 2 {
		t.Fatalf("expected two reset mails, got %d", len(f.mailer.sent))
	}

	if err = f.svc.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
		Token:    tokenA,
		Password: "resetsecret",
	}); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	refreshed, _ := f.repo.FindByID(context.Background(), user.ID)
	if refreshed.PasswordHash == "resetsecret" {
		t.Fatal("reset password stored as plaintext")
	}
	if err = bcrypt.CompareHashAndPassword([]byte(refreshed.PasswordHash), []byte("resetsecret")); err != nil {
		t.Fatalf("reset password does not verify: %v", err)
	}

	if err = f.svc.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
		Token:    tokenB,
		Password: "again",
	}); err != nil {
		t.Fatalf("second token should still redeem: %v", err)
	}
}

func TestResetPasswordTokenErrors(t *testing.T) {
	cfg := testConfig()
	cfg.ResetTokenTTL = -time.Minute
	f := newUserService(cfg)
	activateUser(t, f)

	expired, err := f.svc.ForgetPassword(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatalf("ForgetPassword failed: %v", err)
	}
	if err = f.svc.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
		Token:    expired,
		Password: "whatever",
	}); err != service.ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	if err = f.svc.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
		Token:    "garbage",
		Password: "whatever",
	}); err != service.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestUpdateUserRejectsEmailChange(t *testing.T) {
	f := newUserService(testConfig())
	user := activateUser(t, f)

	_, err := f.svc.UpdateUser(context.Background(), user.ID.Hex(), &dto.UpdateUserRequest{
		Email: "other@x.com",
	}, "")
	if err != service.ErrEmailImmutable {
		t.Fatalf("expected ErrEmailImmutable, got %v", err)
	}
}

func TestUpdateUserReplacesImage(t *testing.T) {
	f := newUserService(testConfig())
	user := activateUser(t, f)
	f.repo.users[user.ID.Hex()].Image = "https://media.example.com/users/old.png"

	staged := filepath.Join(t.TempDir(), "new.png")
	if err := os.WriteFile(staged, []byte("png"), 0o600); err != nil {
		t.Fatalf("failed to stage image: %v", err)
	}

	updated, err := f.svc.UpdateUser(context.Background(), user.ID.Hex(), &dto.UpdateUserRequest{
		Name: "Alice Updated",
	}, staged)
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if updated.Name != "Alice Updated" {
		t.Errorf("name not updated, got %q", updated.Name)
	}
	if updated.Image != "https://media.example.com/users/uploaded.png" {
		t.Errorf("unexpected image url %q", updated.Image)
	}
	if len(f.media.deletes) != 1 || f.media.deletes[0] != "https://media.example.com/users/old.png" {
		t.Errorf("old image should be deleted, got %v", f.media.deletes)
	}
}

func TestDeleteUser(t *testing.T) {
	f := newUserService(testConfig())
	user := activateUser(t, f)
	f.repo.users[user.ID.Hex()].Image = "https://media.example.com/users/avatar.png"

	if err := f.svc.DeleteUser(context.Background(), user.ID.Hex()); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if len(f.repo.users) != 0 {
		t.Fatal("account should be removed")
	}
	if len(f.media.deletes) != 1 {
		t.Fatalf("avatar should be removed from media host, got %v", f.media.deletes)
	}

	if err := f.svc.DeleteUser(context.Background(), user.ID.Hex()); err != service.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDeleteUserRefusesAdmin(t *testing.T) {
	f := newUserService(testConfig())
	admin := f.repo.add(&entity.User{Email: "root@x.com", IsAdmin: true})

	if err := f.svc.DeleteUser(context.Background(), admin.ID.Hex()); err != service.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound for admin target, got %v", err)
	}
	if len(f.repo.users) != 1 {
		t.Fatal("admin account must not be deleted")
	}
}

func TestGetUsers(t *testing.T) {
	f := newUserService(testConfig())

	if _, _, err := f.svc.GetUsers(context.Background(), "", 1, 5); err != service.ErrNoUsersFound {
		t.Fatalf("expected ErrNoUsersFound, got %v", err)
	}

	f.repo.add(&entity.User{Name: "Alice", Email: "alice@x.com", Phone: "111"})
	f.repo.add(&entity.User{Name: "Bob", Email: "bob@x.com", Phone: "222"})
	f.repo.add(&entity.User{Name: "Root", Email: "root@x.com", IsAdmin: true})

	users, pagination, err := f.svc.GetUsers(context.Background(), "", 1, 5)
	if err != nil {
		t.Fatalf("GetUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 non-admin users, got %d", len(users))
	}
	if pagination.TotalPages != 1 || pagination.CurrentPage != 1 {
		t.Errorf("unexpected pagination %+v", pagination)
	}

	users, _, err = f.svc.GetUsers(context.Background(), "bob", 1, 5)
	if err != nil {
		t.Fatalf("GetUsers with search failed: %v", err)
	}
	if len(users) != 1 || users[0].Name != "Bob" {
		t.Fatalf("search returned %v", users)
	}
}
