// Package console implements the interactive operator menu for a parking
// facility. All state changes go through service.ParkingService.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spec-kit/parking-service/internal/allocator"
	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/service"
)

// ErrSessionCancelled is returned by Run when the operator cancels parking
// after a failed payment.
var ErrSessionCancelled = errors.New("parking session cancelled")

// Parker is the subset of the parking service the shell drives.
type Parker interface {
	Park(ctx context.Context, input service.ParkInput) (*domain.Occupancy, error)
	Release(ctx context.Context, token string) (*domain.Occupancy, error)
	Status(ctx context.Context) service.StatusView
}

// Registration sets how many vehicles are registered before the main menu.
type Registration struct {
	TwoWheelers       int
	ThreeFourWheelers int
}

const (
	menuRemove = iota + 1
	menuStatus
	menuHelp
	menuExit
)

const (
	retryCancel = iota + 1
	retryAgain
	retryMainMenu
)

// Shell reads whitespace separated answers from in and writes prompts to out.
type Shell struct {
	in     *bufio.Scanner
	out    io.Writer
	styles styles
}

// NewShell creates a shell over the given streams.
func NewShell(in io.Reader, out io.Writer) *Shell {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)
	return &Shell{in: scanner, out: out, styles: newStyles(out)}
}

// AskCapacities prompts for the number of vehicles of each kind to admit.
// The answers size the tiers and the registration rounds.
func (s *Shell) AskCapacities() (Registration, error) {
	two, err := s.askCount("How many 2-wheeler vehicles to allow initially? ")
	if err != nil {
		return Registration{}, err
	}
	threeFour, err := s.askCount("How many 3/4-wheeler vehicles to allow initially? ")
	if err != nil {
		return Registration{}, err
	}
	return Registration{TwoWheelers: two, ThreeFourWheelers: threeFour}, nil
}

// Run performs the registration rounds and then serves the main menu until
// the operator exits. It returns nil on Exit, ErrSessionCancelled on
// cancellation and a wrapped io.EOF when input ends.
func (s *Shell) Run(ctx context.Context, parker Parker, reg Registration) error {
	if err := s.registerTwoWheelers(ctx, parker, reg.TwoWheelers); err != nil {
		return err
	}
	if err := s.registerThreeFourWheelers(ctx, parker, reg.ThreeFourWheelers); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printMenu()
		word, err := s.ask("Enter your choice: ")
		if err != nil {
			return err
		}
		choice, convErr := strconv.Atoi(word)
		if convErr != nil {
			choice = 0
		}

		switch choice {
		case menuRemove:
			token, err := s.ask("Enter your Token (e.g., T1S1): ")
			if err != nil {
				return err
			}
			s.remove(ctx, parker, token)
		case menuStatus:
			s.showStatus(ctx, parker)
		case menuHelp:
			s.printHelp()
		case menuExit:
			s.println(s.styles.title.Render("Thank you for using Smart Parking System!"))
			return nil
		default:
			s.println(s.styles.failure.Render("Invalid choice. Try again."))
		}
	}
}

func (s *Shell) registerTwoWheelers(ctx context.Context, parker Parker, count int) error {
	if count <= 0 {
		return nil
	}
	s.println("\n" + s.styles.title.Render(fmt.Sprintf("--- Register %d Two-Wheelers ---", count)))
	for i := 1; i <= count; i++ {
		number, err := s.ask(fmt.Sprintf("Enter vehicle number for 2-wheeler %d: ", i))
		if err != nil {
			return err
		}
		if err := s.park(ctx, parker, 2, number); err != nil {
			return err
		}
	}
	return nil
}

func (s *Shell) registerThreeFourWheelers(ctx context.Context, parker Parker, count int) error {
	if count <= 0 {
		return nil
	}
	s.println("\n" + s.styles.title.Render(fmt.Sprintf("--- Register %d Three/Four-Wheelers ---", count)))
	for i := 1; i <= count; i++ {
		word, err := s.ask(fmt.Sprintf("Enter 3 or 4 for vehicle type for vehicle %d: ", i))
		if err != nil {
			return err
		}
		code, convErr := strconv.Atoi(word)
		category := domain.ClassifyVehicle(code)
		if convErr != nil || (category != domain.CategoryThreeWheeler && category != domain.CategoryFourWheeler) {
			s.println(s.styles.failure.Render("Invalid type! Skipping..."))
			continue
		}
		number, err := s.ask("Enter vehicle number: ")
		if err != nil {
			return err
		}
		if err := s.park(ctx, parker, code, number); err != nil {
			return err
		}
	}
	return nil
}

// park confirms payment and parks the vehicle. Only cancellation and input
// errors are returned; allocation failures are reported to the operator.
func (s *Shell) park(ctx context.Context, parker Parker, code int, number string) error {
	category := domain.ClassifyVehicle(code)
	if category == domain.CategoryInvalid {
		s.println(s.styles.failure.Render("Invalid vehicle type."))
		return nil
	}

	approved, err := s.confirmPayment(category)
	if err != nil {
		return err
	}

	occ, err := parker.Park(ctx, service.ParkInput{
		VehicleCode:     code,
		VehicleNumber:   number,
		PaymentApproved: approved,
	})
	switch {
	case err == nil:
		s.println(s.styles.success.Render(fmt.Sprintf("Vehicle parked! Token: %s | Slot: %d | Tier: %d",
			occ.Token, occ.Slot, occ.Tier)))
		s.showStatus(ctx, parker)
	case errors.Is(err, service.ErrPaymentDeclined):
		s.println(s.styles.dim.Render("Returning to main menu."))
	case errors.Is(err, allocator.ErrNoCapacity):
		tier, _ := category.Tier()
		s.println(s.styles.failure.Render(fmt.Sprintf("No Tier %d slots available.", tier)))
	default:
		s.println(s.styles.failure.Render("Unable to park vehicle: " + err.Error()))
	}
	return nil
}

func (s *Shell) confirmPayment(category domain.VehicleCategory) (bool, error) {
	kind := "3/4-wheeler"
	if category == domain.CategoryTwoWheeler {
		kind = "2-wheeler"
	}
	for {
		s.println("Parking payment for " + kind)
		answer, err := s.ask("Proceed with payment? (Y/N): ")
		if err != nil {
			return false, err
		}
		if strings.EqualFold(answer, "y") {
			s.println(s.styles.success.Render("Payment Successful!"))
			return true, nil
		}

		s.println(s.styles.failure.Render("Payment Failed!"))
		s.println("Choose an option:\n1) Cancel Parking\n2) Try Again\n3) Go to Main Menu")
		word, err := s.ask("Enter your choice: ")
		if err != nil {
			return false, err
		}
		switch choice, _ := strconv.Atoi(word); choice {
		case retryCancel:
			return false, ErrSessionCancelled
		case retryAgain:
			continue
		default:
			return false, nil
		}
	}
}

func (s *Shell) remove(ctx context.Context, parker Parker, token string) {
	occ, err := parker.Release(ctx, token)
	if err != nil {
		s.println(s.styles.failure.Render("Invalid token or vehicle not found."))
	} else {
		s.println(s.styles.success.Render(fmt.Sprintf("%s removed from Tier %d - Slot %d",
			occ.VehicleID, occ.Tier, occ.Slot)))
	}
	s.showStatus(ctx, parker)
}

func (s *Shell) showStatus(ctx context.Context, parker Parker) {
	fmt.Fprint(s.out, s.styles.renderStatus(parker.Status(ctx)))
}

func (s *Shell) printMenu() {
	s.println("\n" + s.styles.title.Render("===== Smart Parking Menu ====="))
	s.println("1. Remove Vehicle\n2. Show Slot Status\n3. Help\n4. Exit")
}

func (s *Shell) printHelp() {
	s.println("\n" + s.styles.title.Render("===== Help Menu ====="))
	s.println("1. Remove Vehicle (by Token)\n2. Show Slot Status\n3. Help Menu\n4. Exit")
}

func (s *Shell) askCount(prompt string) (int, error) {
	for {
		word, err := s.ask(prompt)
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(word)
		if convErr == nil && n >= 0 {
			return n, nil
		}
		s.println(s.styles.failure.Render("Please enter a non-negative number."))
	}
}

func (s *Shell) ask(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", fmt.Errorf("read input: %w", io.EOF)
	}
	return s.in.Text(), nil
}

func (s *Shell) println(text string) {
	fmt.Fprintln(s.out, text)
}
