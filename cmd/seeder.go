package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/leave-management/internal/balance"
	balancePostgres "github.com/frahmantamala/leave-management/internal/balance/postgres"
	balanceDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/balance"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/database"
	"github.com/frahmantamala/leave-management/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const seedPassword = "password123"

type seedUser struct {
	Email     string
	FirstName string
	LastName  string
	Role      coreUser.Role
}

var seedUsers = []seedUser{
	{Email: "manager@example.com", FirstName: "Morgan", LastName: "Lee", Role: coreUser.RoleManager},
	{Email: "alex@example.com", FirstName: "Alex", LastName: "Rivera", Role: coreUser.RoleEmployee},
	{Email: "sam@example.com", FirstName: "Sam", LastName: "Okafor", Role: coreUser.RoleEmployee},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users, balances and leave requests for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		setupLogger(cfg)
		lg := logger.L()

		sqlxDB, db, err := openDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer sqlxDB.Close()

		ctx := context.Background()
		balances := balance.NewService(balancePostgres.NewBalanceRepository(db), balance.AllowanceFromConfig(cfg.Leave), lg)

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}

		return database.NewTxManager(db).WithTx(ctx, func(ctx context.Context) error {
			tx := database.Conn(ctx, db)
			if resetData {
				if err := resetLeaveData(tx); err != nil {
					return err
				}
				lg.Info("cleared leave requests and balances")
			}

			ids := make(map[string]int64, len(seedUsers))
			for _, su := range seedUsers {
				id, created, err := ensureUser(tx, su, string(hash))
				if err != nil {
					return err
				}
				ids[su.Email] = id
				if created {
					lg.Info("seeded user", "email", su.Email, "role", su.Role)
				} else {
					lg.Info("user already exists", "email", su.Email)
				}
			}

			// balances go through the ledger so defaults come from one place
			for email, id := range ids {
				if _, err := balances.GetOrCreate(ctx, id); err != nil {
					return fmt.Errorf("provision balance for %s: %w", email, err)
				}
			}

			return seedRequests(tx, ids)
		})
	},
}

func ensureUser(tx *gorm.DB, su seedUser, hash string) (int64, bool, error) {
	var existing userDatamodel.User
	err := tx.Where("email = ?", su.Email).First(&existing).Error
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, fmt.Errorf("look up %s: %w", su.Email, err)
	}

	u := userDatamodel.User{
		Email:        su.Email,
		FirstName:    su.FirstName,
		LastName:     su.LastName,
		PasswordHash: hash,
		Role:         string(su.Role),
	}
	if err := tx.Create(&u).Error; err != nil {
		return 0, false, fmt.Errorf("insert %s: %w", su.Email, err)
	}
	return u.ID, true, nil
}

// seedRequests adds a pending and an approved request for the first employee
// when they have none yet, so both dashboards and the calendar have data.
func seedRequests(tx *gorm.DB, ids map[string]int64) error {
	employeeID := ids["alex@example.com"]
	managerID := ids["manager@example.com"]

	var count int64
	if err := tx.Model(&leaveDatamodel.LeaveRequest{}).Where("employee_id = ?", employeeID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	comment := "Enjoy the break"
	requests := []leaveDatamodel.LeaveRequest{
		{
			EmployeeID: employeeID,
			LeaveType:  string(balance.CategoryVacation),
			StartDate:  today.AddDate(0, 0, 14),
			EndDate:    today.AddDate(0, 0, 18),
			Reason:     "Family trip",
			Status:     "pending",
		},
		{
			EmployeeID:      employeeID,
			LeaveType:       string(balance.CategoryPersonal),
			StartDate:       today.AddDate(0, 0, 3),
			EndDate:         today.AddDate(0, 0, 3),
			Reason:          "Moving house",
			Status:          "approved",
			ManagerID:       &managerID,
			ManagerComments: &comment,
		},
	}
	if err := tx.Create(&requests).Error; err != nil {
		return fmt.Errorf("insert sample leave requests: %w", err)
	}

	// the approved request has already consumed its day
	return tx.Model(&balanceDatamodel.LeaveBalance{}).
		Where("user_id = ?", employeeID).
		Update("personal_leave", gorm.Expr("personal_leave - ?", 1)).Error
}

func resetLeaveData(tx *gorm.DB) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&leaveDatamodel.LeaveRequest{}).Error; err != nil {
		return fmt.Errorf("clear leave requests: %w", err)
	}
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&balanceDatamodel.LeaveBalance{}).Error; err != nil {
		return fmt.Errorf("clear leave balances: %w", err)
	}
	return nil
}
