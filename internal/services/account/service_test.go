// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package account_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bmv-platform/identity/internal/models"
	"github.com/bmv-platform/identity/internal/repository"
	"github.com/bmv-platform/identity/internal/services/account"
	"github.com/bmv-platform/identity/internal/services/token"
	"github.com/bmv-platform/identity/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*account.Service, *repository.Repository, *testutil.FakeNotifier, *token.Codec) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	notifier := &testutil.FakeNotifier{}
	codec := token.NewCodec("test-secret", time.Hour)
	svc := account.NewService(repo, codec, notifier)
	return svc, repo, notifier, codec
}

func registerParams(email string) account.RegisterParams {
	return account.RegisterParams{
		Identification: "0912345678",
		Email:          email,
		Password:       "secret-password-1",
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Type:           models.TypeProfessional,
		Role:           models.RoleClient,
	}
}

func TestRegister(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	acc, err := svc.Register(ctx, registerParams("a@x.com"))

	require.NoError(t, err)
	assert.False(t, acc.EmailVerified)
	assert.True(t, acc.IsActive)
	assert.NotEmpty(t, acc.ID)

	// Verification token persisted with ~24h expiry
	stored, err := repo.GetAccountByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationToken)
	require.NotNil(t, stored.VerificationTokenExpires)
	assert.Len(t, *stored.VerificationToken, 64)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *stored.VerificationTokenExpires, time.Minute)

	// Notification carried the same token
	require.Len(t, notifier.VerificationCalls, 1)
	assert.Equal(t, "a@x.com", notifier.VerificationCalls[0].To)
	assert.Equal(t, *stored.VerificationToken, notifier.VerificationCalls[0].Token)

	// Sanitized: serialized account exposes no credential material
	data, err := json.Marshal(acc)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
	assert.NotContains(t, string(data), *stored.VerificationToken)
}

func TestRegister_NormalizesEmail(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerParams("  MiXeD@Case.COM "))
	require.NoError(t, err)

	_, err = repo.GetAccountByEmail(ctx, "mixed@case.com")
	assert.NoError(t, err)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerParams("a@x.com"))
	require.NoError(t, err)

	params := registerParams("a@x.com")
	params.Identification = "0998765432"
	_, err = svc.Register(ctx, params)
	assert.ErrorIs(t, err, account.ErrEmailTaken)
}

func TestRegister_NotificationFailureDeletesAccount(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	notifier.FailVerification = errors.New("smtp unreachable")

	_, err := svc.Register(ctx, registerParams("a@x.com"))
	assert.ErrorIs(t, err, account.ErrNotificationFailed)

	// Compensating delete: the account must not exist afterwards
	_, err = repo.GetAccountByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// And the email is registrable again
	notifier.FailVerification = nil
	_, err = svc.Register(ctx, registerParams("a@x.com"))
	assert.NoError(t, err)
}

func TestLogin_UnknownAndWrongPasswordLookAlike(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	testutil.NewTestAccount(t, repo, "known@x.com", true)

	_, errUnknown := svc.Login(ctx, "unknown@x.com", "whatever-pass")
	_, errWrong := svc.Login(ctx, "known@x.com", "wrong-password")

	assert.ErrorIs(t, errUnknown, account.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, account.ErrInvalidCredentials)
	assert.Equal(t, errUnknown, errWrong)
}

func TestLogin_Deactivated(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "user@x.com", true)
	require.NoError(t, repo.DeactivateAccount(ctx, acc.ID))

	_, err := svc.Login(ctx, "user@x.com", testutil.TestPassword)
	assert.ErrorIs(t, err, account.ErrAccountDeactivated)
}

func TestLogin_UnverifiedBlockedAndResent(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "user@x.com", false)

	_, err := svc.Login(ctx, "user@x.com", testutil.TestPassword)

	assert.ErrorIs(t, err, account.ErrEmailNotVerified)
	// Pending token still valid, so it is reused, not rotated
	require.Len(t, notifier.VerificationCalls, 1)
	assert.Equal(t, *acc.VerificationToken, notifier.VerificationCalls[0].Token)
}

func TestLogin_UnverifiedExpiredTokenRotated(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "user@x.com", false)
	stale := *acc.VerificationToken
	require.NoError(t, repo.SetVerificationToken(ctx, acc.ID, stale, time.Now().Add(-time.Hour)))

	_, err := svc.Login(ctx, "user@x.com", testutil.TestPassword)

	assert.ErrorIs(t, err, account.ErrEmailNotVerified)
	require.Len(t, notifier.VerificationCalls, 1)
	assert.NotEqual(t, stale, notifier.VerificationCalls[0].Token)
}

func TestLogin_UnverifiedResendFailureStillBlocksOnly(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	testutil.NewTestAccount(t, repo, "user@x.com", false)
	notifier.FailVerification = errors.New("smtp unreachable")

	_, err := svc.Login(ctx, "user@x.com", testutil.TestPassword)

	// Best-effort resend: delivery failure never changes the login outcome
	assert.ErrorIs(t, err, account.ErrEmailNotVerified)
}

func TestLogin_Success(t *testing.T) {
	svc, repo, _, codec := newTestService(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "user@x.com", true)

	result, err := svc.Login(ctx, "user@x.com", testutil.TestPassword)

	require.NoError(t, err)
	require.NotNil(t, result.Account.LastLogin)
	assert.WithinDuration(t, time.Now(), *result.Account.LastLogin, 5*time.Second)

	claims, err := codec.VerifySession(result.Token)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, claims.Subject)
	assert.Equal(t, "user@x.com", claims.Email)
}

func TestVerifyEmail(t *testing.T) {
	svc, repo, notifier, codec := newTestService(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "user@x.com", false)
	verification := *acc.VerificationToken

	result, err := svc.VerifyEmail(ctx, verification)

	require.NoError(t, err)
	assert.True(t, result.Account.EmailVerified)
	assert.Nil(t, result.Account.VerificationToken)
	assert.Nil(t, result.Account.VerificationTokenExpires)

	// Verification establishes a session
	claims, err := codec.VerifySession(result.Token)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, claims.Subject)

	// Welcome notification went out
	assert.Len(t, notifier.WelcomeCalls, 1)

	// Token fields cleared in the store
	stored, err := repo.GetAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)
	assert.Nil(t, stored.VerificationToken)

	// Single use: a second consume fails
	_, err = svc.VerifyEmail(ctx, verification)
	assert.ErrorIs(t, err, account.ErrTokenInvalidOrExpired)
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "user@x.com", false)
	require.NoError(t, repo.SetVerificationToken(ctx, acc.ID, *acc.VerificationToken, time.Now().Add(-time.Minute)))

	_, err := svc.VerifyEmail(ctx, *acc.VerificationToken)
	assert.ErrorIs(t, err, account.ErrTokenInvalidOrExpired)
}

func TestVerifyEmail_AlreadyVerified(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	// A verified account holding a token should not normally occur; the
	// secondary guard still rejects the replay.
	acc := testutil.NewTestAccount(t, repo, "user@x.com", true)
	require.NoError(t, repo.SetVerificationToken(ctx, acc.ID, "leftover-token", time.Now().Add(time.Hour)))

	_, err := svc.VerifyEmail(ctx, "leftover-token")
	assert.ErrorIs(t, err, account.ErrAlreadyVerified)
}

func TestVerifyEmail_WelcomeFailureDoesNotFail(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "user@x.com", false)
	notifier.FailWelcome = errors.New("smtp unreachable")

	result, err := svc.VerifyEmail(ctx, *acc.VerificationToken)

	require.NoError(t, err)
	assert.True(t, result.Account.EmailVerified)
	assert.NotEmpty(t, result.Token)
}

func TestResendVerification_UnknownEmailSilent(t *testing.T) {
	svc, _, notifier, _ := newTestService(t)

	err := svc.ResendVerification(context.Background(), "nobody@x.com")

	assert.NoError(t, err)
	assert.Zero(t, notifier.TotalCalls())
}

func TestResendVerification_AlreadyVerified(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	testutil.NewTestAccount(t, repo, "user@x.com", true)

	err := svc.ResendVerification(context.Background(), "user@x.com")
	assert.ErrorIs(t, err, account.ErrAlreadyVerified)
}

func TestResendVerification_ReusesValidToken(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)

	acc := testutil.NewTestAccount(t, repo, "user@x.com", false)

	err := svc.ResendVerification(context.Background(), "user@x.com")

	require.NoError(t, err)
	require.Len(t, notifier.VerificationCalls, 1)
	assert.Equal(t, *acc.VerificationToken, notifier.VerificationCalls[0].Token)
}

func TestResendVerification_RotatesExpiredToken(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "user@x.com", false)
	stale := *acc.VerificationToken
	require.NoError(t, repo.SetVerificationToken(ctx, acc.ID, stale, time.Now().Add(-time.Hour)))

	err := svc.ResendVerification(ctx, "user@x.com")

	require.NoError(t, err)
	require.Len(t, notifier.VerificationCalls, 1)
	assert.NotEqual(t, stale, notifier.VerificationCalls[0].Token)

	stored, err := repo.GetAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, notifier.VerificationCalls[0].Token, *stored.VerificationToken)
}

func TestResendVerification_DeliveryFailure(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)

	testutil.NewTestAccount(t, repo, "user@x.com", false)
	notifier.FailVerification = errors.New("smtp unreachable")

	err := svc.ResendVerification(context.Background(), "user@x.com")
	assert.ErrorIs(t, err, account.ErrNotificationFailed)
}

func TestRequestPasswordReset_UnknownOrUnverifiedSilent(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	unverified := testutil.NewTestAccount(t, repo, "pending@x.com", false)

	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@x.com"))
	require.NoError(t, svc.RequestPasswordReset(ctx, "pending@x.com"))

	// No notification dispatched, no token minted
	assert.Empty(t, notifier.ResetCalls)
	stored, err := repo.GetAccountByID(ctx, unverified.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ResetPasswordToken)
}

func TestRequestPasswordReset_Verified(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "user@x.com", true)

	err := svc.RequestPasswordReset(ctx, "user@x.com")

	require.NoError(t, err)
	require.Len(t, notifier.ResetCalls, 1)

	stored, err := repo.GetAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResetPasswordToken)
	require.NotNil(t, stored.ResetPasswordExpires)
	assert.Equal(t, notifier.ResetCalls[0].Token, *stored.ResetPasswordToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *stored.ResetPasswordExpires, time.Minute)
}

func TestRequestPasswordReset_DeliveryFailure(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)

	testutil.NewTestAccount(t, repo, "user@x.com", true)
	notifier.FailReset = errors.New("smtp unreachable")

	err := svc.RequestPasswordReset(context.Background(), "user@x.com")
	assert.ErrorIs(t, err, account.ErrNotificationFailed)
}

func TestResetPassword(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "user@x.com", true)
	require.NoError(t, svc.RequestPasswordReset(ctx, "user@x.com"))
	reset := notifier.ResetCalls[0].Token

	err := svc.ResetPassword(ctx, reset, "brand-new-password")
	require.NoError(t, err)

	// Old password no longer works, new one does
	_, err = svc.Login(ctx, "user@x.com", testutil.TestPassword)
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	result, err := svc.Login(ctx, "user@x.com", "brand-new-password")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, result.Account.ID)

	// Token cleared and single-use
	stored, err := repo.GetAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ResetPasswordToken)
	assert.ErrorIs(t, svc.ResetPassword(ctx, reset, "another-password"), account.ErrTokenInvalidOrExpired)
}

func TestResetPassword_ExpiredTokenLeavesPasswordUnchanged(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "user@x.com", true)
	require.NoError(t, repo.SetResetToken(ctx, acc.ID, "expired-token", time.Now().Add(-time.Minute)))

	err := svc.ResetPassword(ctx, "expired-token", "brand-new-password")
	assert.ErrorIs(t, err, account.ErrTokenInvalidOrExpired)

	_, err = svc.Login(ctx, "user@x.com", testutil.TestPassword)
	assert.NoError(t, err)
}

func TestRoundTrip_RegisterVerifyLogin(t *testing.T) {
	svc, _, notifier, codec := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerParams("a@x.com"))
	require.NoError(t, err)

	verifyResult, err := svc.VerifyEmail(ctx, notifier.VerificationCalls[0].Token)
	require.NoError(t, err)
	require.NotEmpty(t, verifyResult.Token)

	loginResult, err := svc.Login(ctx, "a@x.com", "secret-password-1")
	require.NoError(t, err)
	require.NotNil(t, loginResult.Account.LastLogin)

	for _, session := range []string{verifyResult.Token, loginResult.Token} {
		claims, err := codec.VerifySession(session)
		require.NoError(t, err)
		assert.Equal(t, verifyResult.Account.ID, claims.Subject)
	}

	data, err := json.Marshal(loginResult.Account)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
}

func TestUpdate(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "user@x.com", true)

	updated, err := svc.Update(ctx, acc.ID, account.UpdateParams{
		FirstName: "Grace",
		LastName:  "Hopper",
		Type:      models.TypeCompany,
		Role:      models.RoleOperator,
	})

	require.NoError(t, err)
	assert.Equal(t, "Grace", updated.FirstName)
	assert.Equal(t, models.TypeCompany, updated.Type)
	assert.Equal(t, models.RoleOperator, updated.Role)
	// Email stays put
	assert.Equal(t, "user@x.com", updated.Email)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), "missing-id", account.UpdateParams{})
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestList_ExcludesDeactivated(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	a := testutil.NewTestAccount(t, repo, "a@x.com", true)
	b := testutil.NewTestAccount(t, repo, "b@x.com", true)
	require.NoError(t, svc.Deactivate(ctx, a.ID))

	accounts, err := svc.List(ctx)

	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, b.ID, accounts[0].ID)
}

func TestDelete(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "user@x.com", true)

	require.NoError(t, svc.Delete(ctx, acc.ID))

	_, err := svc.GetByID(ctx, acc.ID)
	assert.ErrorIs(t, err, account.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, acc.ID), account.ErrNotFound)
}
