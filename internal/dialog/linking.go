package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/surgepay/surgepay/internal/account"
	"github.com/surgepay/surgepay/internal/linking"
	"github.com/surgepay/surgepay/internal/session"
	"github.com/surgepay/surgepay/internal/transport"
	"github.com/surgepay/surgepay/internal/user"
	"github.com/surgepay/surgepay/internal/validate"
)

func (h *Handlers) handleInitiatingLink(_ context.Context, in Context) (Result, error) {
	if _, err := validate.LinkInit(in.Input); err != nil {
		return stay(session.StateInitiatingLink, err.Error()), nil
	}
	return Result{
		NextState: session.StateSelectingInstitution,
		Reply:     BankListPrompt(h.Aggregator.Institutions()),
		Template:  transport.TemplateBankSelection,
	}, nil
}

// BankListPrompt renders the numbered institution menu.
func BankListPrompt(institutions []linking.Institution) string {
	var b strings.Builder
	b.WriteString("Which bank do you use?\n\n")
	for i, inst := range institutions {
		fmt.Fprintf(&b, "%d️⃣ %s\n", i+1, inst.Name)
	}
	b.WriteString("\nReply with the number or the bank name.")
	return b.String()
}

func (h *Handlers) handleSelectingInstitution(ctx context.Context, in Context) (Result, error) {
	data := in.Data

	institutionID := ""
	if strings.EqualFold(strings.TrimSpace(in.Input), "RETRY") && data.InstitutionKey != "" {
		institutionID = data.InstitutionKey
	} else {
		inst, err := linking.ParseSelection(in.Input, h.Aggregator.Institutions())
		if err != nil {
			return stay(session.StateSelectingInstitution, "I don't support that bank yet.\n\n"+BankListPrompt(h.Aggregator.Institutions())), nil
		}
		institutionID = inst.ID
	}
	data.InstitutionKey = institutionID

	holderName := data.Name
	if in.User != nil {
		holderName = in.User.FullName
	}
	details, err := h.Aggregator.Connect(ctx, institutionID, holderName)
	if err != nil {
		if errors.Is(err, linking.ErrConnectionFailed) {
			return Result{
				NextState: session.StateSelectingInstitution,
				Reply:     "⚠️ The connection to your bank failed. Type RETRY to try again, pick another bank, or CANCEL.",
				Data:      &data,
			}, nil
		}
		return Result{}, err
	}

	data.LinkedAccount = &session.LinkedAccount{
		AccessToken:   details.AccessToken,
		AccountID:     details.ExternalID,
		AccountNumber: details.AccountNumber,
		RoutingNumber: details.RoutingNumber,
		BankName:      details.BankName,
		AccountType:   details.AccountType,
		HolderName:    details.HolderName,
	}
	return Result{
		NextState: session.StateConfirmingLink,
		Reply: fmt.Sprintf("✅ Connected!\n\n🏦 %s %s account ending in %s\n👤 %s\n\nLink this account? (YES/NO)",
			details.BankName, details.AccountType, lastFour(details.AccountNumber), details.HolderName),
		Template: transport.TemplateYesNo,
		Data:     &data,
	}, nil
}

func (h *Handlers) handleConfirmingLink(ctx context.Context, in Context) (Result, error) {
	answer, err := validate.YesNo(in.Input)
	if err != nil {
		return stay(session.StateConfirmingLink, err.Error()), nil
	}
	data := in.Data

	if answer == "NO" {
		data.LinkedAccount = nil
		data.InstitutionKey = ""
		if data.AddingAccount {
			return CancelResult(data, "No problem, the account was not linked. "+IdleMenu()), nil
		}
		return Result{
			NextState: session.StateInitiatingLink,
			Reply:     "No problem. Type LINK BANK whenever you're ready.",
			Data:      &data,
		}, nil
	}

	if data.LinkedAccount == nil {
		return stay(session.StateConfirmingLink, "Something went wrong. Type CANCEL and try LINK BANK again."), nil
	}

	owner := in.User
	if owner == nil {
		// First-time onboarding: the profile and the first account are
		// created together once the account is confirmed.
		dob, perr := time.Parse("02/01/2006", data.DOB)
		if perr != nil {
			return Result{}, fmt.Errorf("parse stored date of birth: %w", perr)
		}
		created, cerr := h.Users.Create(ctx, user.CreateInput{
			PhoneNumber: in.Phone,
			FullName:    data.Name,
			Email:       data.Email,
			DateOfBirth: dob,
			Address:     data.Address,
		})
		if cerr != nil {
			return Result{}, cerr
		}
		owner = &created
	}

	linked := data.LinkedAccount
	_, err = h.Accounts.Link(ctx, account.CreateInput{
		UserID:        owner.ID,
		AccessToken:   linked.AccessToken,
		ExternalID:    linked.AccountID,
		AccountNumber: linked.AccountNumber,
		RoutingNumber: linked.RoutingNumber,
		BankName:      linked.BankName,
		HolderName:    linked.HolderName,
		AccountType:   linked.AccountType,
		Default:       in.User == nil,
	})
	if err != nil {
		if errors.Is(err, account.ErrLimitReached) {
			return CancelResult(data, fmt.Sprintf("You already have %d linked accounts, which is the maximum. Remove one first with REMOVE BANK. %s",
				account.MaxActivePerUser, IdleMenu())), nil
		}
		return Result{}, err
	}

	bankName := linked.BankName
	fresh := session.Data{}
	if in.User == nil {
		return Result{
			NextState: session.StateIdle,
			Reply: fmt.Sprintf("🎉 You're all set, %s!\n\nYour %s account is linked and ready.\n\n%s",
				firstName(owner.FullName), bankName, IdleMenu()),
			Template: transport.TemplateIdleMenu,
			Data:     &fresh,
		}, nil
	}
	return Result{
		NextState: session.StateIdle,
		Reply:     fmt.Sprintf("✅ Your %s account is linked.\n\n%s", bankName, IdleMenu()),
		Template:  transport.TemplateIdleMenu,
		Data:      &fresh,
	}, nil
}

func lastFour(number string) string {
	if len(number) < 4 {
		return number
	}
	return number[len(number)-4:]
}
