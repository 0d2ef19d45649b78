package borrow

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// =========================================
// 内存版Fake（单元测试用，不依赖MySQL）
// =========================================

// fakeTxManager 用全局互斥锁模拟事务串行化
// 真实实现里SELECT FOR UPDATE会让并发事务在行锁上排队，
// 这里粗化为整个事务互斥，语义上等价于所有申请都落在同一行锁上
type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

// fakeBorrowRepo 内存版借阅仓储
type fakeBorrowRepo struct {
	mu      sync.Mutex
	borrows map[uint]*Borrow
	nextID  uint

	// conflictOnce 使下一次UpdateStatus返回一次ErrStatusConflict（注入并发竞争）
	conflictOnce bool
}

func newFakeBorrowRepo() *fakeBorrowRepo {
	return &fakeBorrowRepo{borrows: make(map[uint]*Borrow), nextID: 1}
}

func cloneBorrow(b *Borrow) *Borrow {
	c := *b
	return &c
}

func (r *fakeBorrowRepo) Create(ctx context.Context, b *Borrow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = r.nextID
	r.nextID++
	r.borrows[b.ID] = cloneBorrow(b)
	return nil
}

func (r *fakeBorrowRepo) FindByID(ctx context.Context, id uint) (*Borrow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.borrows[id]
	if !ok {
		return nil, ErrBorrowNotFound
	}
	return cloneBorrow(b), nil
}

func (r *fakeBorrowRepo) UpdateStatus(ctx context.Context, b *Borrow, expected BorrowStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflictOnce {
		r.conflictOnce = false
		return ErrStatusConflict
	}

	stored, ok := r.borrows[b.ID]
	if !ok {
		return ErrBorrowNotFound
	}
	if stored.Status != expected {
		return ErrStatusConflict
	}
	r.borrows[b.ID] = cloneBorrow(b)
	return nil
}

func (r *fakeBorrowRepo) SumCommittedByBook(ctx context.Context, bookID uint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, b := range r.borrows {
		if b.BookID == bookID && b.IsCommitted() {
			total += b.Quantity
		}
	}
	return total, nil
}

func (r *fakeBorrowRepo) SumCommittedByReader(ctx context.Context, readerID uint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, b := range r.borrows {
		if b.ReaderID == readerID && b.IsCommitted() {
			total += b.Quantity
		}
	}
	return total, nil
}

func (r *fakeBorrowRepo) List(ctx context.Context, params ListParams) ([]*Borrow, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Borrow
	for _, b := range r.borrows {
		if params.ReaderID > 0 && b.ReaderID != params.ReaderID {
			continue
		}
		if params.BookID > 0 && b.BookID != params.BookID {
			continue
		}
		if params.Status > 0 && b.Status != params.Status {
			continue
		}
		result = append(result, cloneBorrow(b))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, int64(len(result)), nil
}

func (r *fakeBorrowRepo) CountStats(ctx context.Context, params ListParams, now time.Time) (*StatusStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &StatusStats{}
	for _, b := range r.borrows {
		if params.ReaderID > 0 && b.ReaderID != params.ReaderID {
			continue
		}
		if params.BookID > 0 && b.BookID != params.BookID {
			continue
		}
		switch b.Status {
		case StatusPending:
			stats.Pending++
		case StatusApproved:
			stats.Approved++
		}
		if b.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats, nil
}

func (r *fakeBorrowRepo) FindExpiredPending(ctx context.Context, before time.Time, limit int) ([]*Borrow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Borrow
	for _, b := range r.borrows {
		if b.Status == StatusPending && !b.CreatedAt.After(before) {
			result = append(result, cloneBorrow(b))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeBorrowRepo) CountByStatus(ctx context.Context, status BorrowStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, b := range r.borrows {
		if b.Status == status {
			count++
		}
	}
	return count, nil
}

// setCreatedAt 回拨申请时间（过期巡检测试用）
func (r *fakeBorrowRepo) setCreatedAt(id uint, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.borrows[id]; ok {
		b.CreatedAt = at
	}
}

// setDueDate 回拨应还日期（逾期场景测试用）
func (r *fakeBorrowRepo) setDueDate(id uint, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.borrows[id]; ok {
		b.DueDate = &at
	}
}

// fakeUserRepo 内存版用户仓储
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*user.User)}
}

func (r *fakeUserRepo) add(u *user.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	r.add(u)
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uint) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

// LockByID 事务内行锁语义由fakeTxManager的全局互斥提供
func (r *fakeUserRepo) LockByID(ctx context.Context, id uint) (*user.User, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeUserRepo) Update(ctx context.Context, u *user.User) error {
	r.add(u)
	return nil
}

func (r *fakeUserRepo) CountByRole(ctx context.Context, role user.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, u := range r.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

// fakeBookRepo 内存版图书仓储
type fakeBookRepo struct {
	mu    sync.Mutex
	books map[uint]*book.Book
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: make(map[uint]*book.Book)}
}

func (r *fakeBookRepo) add(b *book.Book) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books[b.ID] = b
}

func (r *fakeBookRepo) Create(ctx context.Context, b *book.Book) error {
	r.add(b)
	return nil
}

func (r *fakeBookRepo) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	c := *b
	return &c, nil
}

func (r *fakeBookRepo) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.books {
		if b.ISBN == isbn {
			c := *b
			return &c, nil
		}
	}
	return nil, book.ErrBookNotFound
}

func (r *fakeBookRepo) Update(ctx context.Context, b *book.Book) error {
	r.add(b)
	return nil
}

func (r *fakeBookRepo) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	return nil, 0, nil
}

func (r *fakeBookRepo) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeBookRepo) Count(ctx context.Context, onlyActive bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, b := range r.books {
		if !onlyActive || b.IsActive {
			count++
		}
	}
	return count, nil
}

// =========================================
// 测试环境
// =========================================

type testEnv struct {
	svc        Service
	borrowRepo *fakeBorrowRepo
	userRepo   *fakeUserRepo
	bookRepo   *fakeBookRepo
}

// 固定测试数据：
// 读者ID=1，馆员ID=2，图书ID=1（馆藏3册、在架）
const (
	testReaderID = uint(1)
	testStaffID  = uint(2)
	testBookID   = uint(1)
)

func newTestEnv() *testEnv {
	borrowRepo := newFakeBorrowRepo()
	userRepo := newFakeUserRepo()
	bookRepo := newFakeBookRepo()

	userRepo.add(&user.User{ID: testReaderID, BusinessID: "RD10000000001234", Email: "reader@test.com", Name: "测试读者", Role: user.RoleReader})
	userRepo.add(&user.User{ID: testStaffID, BusinessID: "ST10000000005678", Email: "staff@test.com", Name: "测试馆员", Role: user.RoleStaff})
	bookRepo.add(&book.Book{ID: testBookID, ISBN: "9787115428028", Title: "Go语言实战", Author: "测试作者", TotalQuantity: 3, IsActive: true})

	return &testEnv{
		svc:        NewService(borrowRepo, bookRepo, userRepo, &fakeTxManager{}),
		borrowRepo: borrowRepo,
		userRepo:   userRepo,
		bookRepo:   bookRepo,
	}
}

// addReader 追加一个读者
func (e *testEnv) addReader(id uint) {
	e.userRepo.add(&user.User{ID: id, Email: "r@test.com", Name: "读者", Role: user.RoleReader})
}

// =========================================
// 创建借阅：准入控制
// =========================================

func TestCreateBorrow_Success(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	b, err := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 2, "课程需要")
	if err != nil {
		t.Fatalf("创建借阅失败: %v", err)
	}

	if b.ID == 0 {
		t.Errorf("应分配记录ID")
	}
	if b.Status != StatusPending {
		t.Errorf("初始状态应为待审批, 实际 %v", b.Status)
	}
	if b.Quantity != 2 {
		t.Errorf("借阅册数应为2")
	}
	if b.BorrowDate != nil || b.DueDate != nil {
		t.Errorf("审批前不应有借出/应还日期")
	}

	available, err := env.svc.AvailableQuantity(ctx, testBookID)
	if err != nil {
		t.Fatalf("查询可借数量失败: %v", err)
	}
	if available != 1 {
		t.Errorf("待审批申请应占用额度: 可借数量应为1, 实际 %d", available)
	}
}

func TestCreateBorrow_InvalidQuantity(t *testing.T) {
	env := newTestEnv()

	if _, err := env.svc.CreateBorrow(context.Background(), testReaderID, testBookID, 0, ""); !apperrors.Is(err, ErrInvalidQuantity) {
		t.Errorf("册数为0应返回ErrInvalidQuantity, 实际 %v", err)
	}
}

func TestCreateBorrow_StaffForbidden(t *testing.T) {
	env := newTestEnv()

	// 馆员不能发起借阅申请
	if _, err := env.svc.CreateBorrow(context.Background(), testStaffID, testBookID, 1, ""); !apperrors.Is(err, ErrForbidden) {
		t.Errorf("馆员发起借阅应返回ErrForbidden, 实际 %v", err)
	}
}

func TestCreateBorrow_InactiveBook(t *testing.T) {
	env := newTestEnv()
	env.bookRepo.add(&book.Book{ID: 9, ISBN: "9787115400000", Title: "已下架图书", TotalQuantity: 3, IsActive: false})

	if _, err := env.svc.CreateBorrow(context.Background(), testReaderID, 9, 1, ""); !apperrors.Is(err, apperrors.ErrBookInactive) {
		t.Errorf("下架图书应返回ErrBookInactive, 实际 %v", err)
	}
}

func TestCreateBorrow_InsufficientStock(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// 一次申请超过馆藏总量
	if _, err := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 4, ""); !apperrors.Is(err, ErrInsufficientStock) {
		t.Errorf("超量申请应返回ErrInsufficientStock, 实际 %v", err)
	}

	// 逐步占满额度后再申请
	if _, err := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 3, ""); err != nil {
		t.Fatalf("占满额度的申请失败: %v", err)
	}
	env.addReader(10)
	if _, err := env.svc.CreateBorrow(ctx, 10, testBookID, 1, ""); !apperrors.Is(err, ErrInsufficientStock) {
		t.Errorf("额度占满后应返回ErrInsufficientStock, 实际 %v", err)
	}
}

func TestCreateBorrow_LimitExceeded(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// 上限是跨图书的全局口径：两本书各借满一部分
	env.bookRepo.add(&book.Book{ID: 2, ISBN: "9787115400001", Title: "第二本书", TotalQuantity: 10, IsActive: true})

	if _, err := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 3, ""); err != nil {
		t.Fatalf("第一笔申请失败: %v", err)
	}
	if _, err := env.svc.CreateBorrow(ctx, testReaderID, 2, 2, ""); err != nil {
		t.Fatalf("第二笔申请失败: %v", err)
	}

	// 在借总量已达5，再借1本超限
	if _, err := env.svc.CreateBorrow(ctx, testReaderID, 2, 1, ""); !apperrors.Is(err, ErrLimitExceeded) {
		t.Errorf("超出全局上限应返回ErrLimitExceeded, 实际 %v", err)
	}
}

// TestCreateBorrow_Concurrent 并发申请不超借
// 馆藏3册，10个读者同时各申请1册：只能成功3个
func TestCreateBorrow_Concurrent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	const workers = 10
	for i := 0; i < workers; i++ {
		env.addReader(uint(100 + i))
	}

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(readerID uint) {
			defer wg.Done()
			_, err := env.svc.CreateBorrow(ctx, readerID, testBookID, 1, "")
			results <- err
		}(uint(100 + i))
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case apperrors.Is(err, ErrInsufficientStock):
			rejected++
		default:
			t.Errorf("意外错误: %v", err)
		}
	}

	if succeeded != 3 {
		t.Errorf("馆藏3册应恰好成功3个申请, 实际成功%d个", succeeded)
	}
	if rejected != workers-3 {
		t.Errorf("其余%d个申请应因额度不足被拒, 实际%d个", workers-3, rejected)
	}

	// 在借总量不得超过馆藏总量
	committed, _ := env.borrowRepo.SumCommittedByBook(ctx, testBookID)
	if committed != 3 {
		t.Errorf("在借总量应为3, 实际 %d", committed)
	}
}

// =========================================
// 生命周期流转
// =========================================

func TestCancelBorrow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	t.Run("本人取消待审批申请", func(t *testing.T) {
		b, _ := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 1, "")
		cancelled, err := env.svc.CancelBorrow(ctx, testReaderID, b.ID)
		if err != nil {
			t.Fatalf("取消失败: %v", err)
		}
		if cancelled.Status != StatusCancelled {
			t.Errorf("状态应为已取消")
		}

		// 取消后额度释放
		available, _ := env.svc.AvailableQuantity(ctx, testBookID)
		if available != 3 {
			t.Errorf("取消后可借数量应恢复为3, 实际 %d", available)
		}
	})

	t.Run("他人申请不能取消", func(t *testing.T) {
		env.addReader(20)
		b, _ := env.svc.CreateBorrow(ctx, 20, testBookID, 1, "")

		if _, err := env.svc.CancelBorrow(ctx, testReaderID, b.ID); !apperrors.Is(err, ErrForbidden) {
			t.Errorf("取消他人申请应返回ErrForbidden, 实际 %v", err)
		}
	})

	t.Run("已借出不能取消", func(t *testing.T) {
		env.addReader(21)
		b, _ := env.svc.CreateBorrow(ctx, 21, testBookID, 1, "")
		if _, err := env.svc.ApproveBorrow(ctx, testStaffID, b.ID); err != nil {
			t.Fatalf("审批失败: %v", err)
		}

		if _, err := env.svc.CancelBorrow(ctx, 21, b.ID); !apperrors.Is(err, ErrInvalidTransition) {
			t.Errorf("已借出记录取消应返回ErrInvalidTransition, 实际 %v", err)
		}
	})
}

func TestApproveBorrow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	t.Run("馆员审批通过写入借期", func(t *testing.T) {
		b, _ := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 1, "")

		before := time.Now()
		approved, err := env.svc.ApproveBorrow(ctx, testStaffID, b.ID)
		if err != nil {
			t.Fatalf("审批失败: %v", err)
		}
		after := time.Now()

		if approved.Status != StatusApproved {
			t.Errorf("状态应为已借出")
		}
		if approved.BorrowDate == nil || approved.DueDate == nil {
			t.Fatalf("审批后应有借出/应还日期")
		}

		// 应还日期 = 审批时间 + 14天
		minDue := before.Add(LoanPeriod)
		maxDue := after.Add(LoanPeriod)
		if approved.DueDate.Before(minDue) || approved.DueDate.After(maxDue) {
			t.Errorf("应还日期应为审批时间+14天, 实际 %v", approved.DueDate)
		}
	})

	t.Run("读者不能审批", func(t *testing.T) {
		b, _ := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 1, "")

		if _, err := env.svc.ApproveBorrow(ctx, testReaderID, b.ID); !apperrors.Is(err, ErrForbidden) {
			t.Errorf("读者审批应返回ErrForbidden, 实际 %v", err)
		}
	})

	t.Run("重复审批返回状态错误", func(t *testing.T) {
		env2 := newTestEnv()
		b, _ := env2.svc.CreateBorrow(ctx, testReaderID, testBookID, 1, "")
		if _, err := env2.svc.ApproveBorrow(ctx, testStaffID, b.ID); err != nil {
			t.Fatalf("首次审批失败: %v", err)
		}

		if _, err := env2.svc.ApproveBorrow(ctx, testStaffID, b.ID); !apperrors.Is(err, ErrInvalidTransition) {
			t.Errorf("重复审批应返回ErrInvalidTransition, 实际 %v", err)
		}
	})
}

func TestRejectBorrow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	b, _ := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 2, "")
	rejected, err := env.svc.RejectBorrow(ctx, testStaffID, b.ID, "馆藏维护中")
	if err != nil {
		t.Fatalf("拒绝失败: %v", err)
	}

	if rejected.Status != StatusRejected {
		t.Errorf("状态应为已拒绝")
	}
	if rejected.Note != "馆藏维护中" {
		t.Errorf("应记录拒绝原因")
	}

	// 拒绝后额度释放
	available, _ := env.svc.AvailableQuantity(ctx, testBookID)
	if available != 3 {
		t.Errorf("拒绝后可借数量应恢复为3, 实际 %d", available)
	}
}

func TestConfirmReturn(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	t.Run("归还释放额度", func(t *testing.T) {
		b, _ := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 2, "")
		if _, err := env.svc.ApproveBorrow(ctx, testStaffID, b.ID); err != nil {
			t.Fatalf("审批失败: %v", err)
		}

		returned, err := env.svc.ConfirmReturn(ctx, testStaffID, b.ID)
		if err != nil {
			t.Fatalf("归还失败: %v", err)
		}
		if returned.Status != StatusReturned {
			t.Errorf("状态应为已归还")
		}
		if returned.ReturnDate == nil {
			t.Errorf("应记录归还日期")
		}

		available, _ := env.svc.AvailableQuantity(ctx, testBookID)
		if available != 3 {
			t.Errorf("归还后可借数量应恢复为3, 实际 %d", available)
		}
	})

	t.Run("逾期归还保留逾期事实", func(t *testing.T) {
		b, _ := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 1, "")
		if _, err := env.svc.ApproveBorrow(ctx, testStaffID, b.ID); err != nil {
			t.Fatalf("审批失败: %v", err)
		}
		// 回拨应还日期到昨天，模拟晚一天归还
		env.borrowRepo.setDueDate(b.ID, time.Now().Add(-24*time.Hour))

		returned, err := env.svc.ConfirmReturn(ctx, testStaffID, b.ID)
		if err != nil {
			t.Fatalf("归还失败: %v", err)
		}
		if returned.Status != StatusReturned {
			t.Errorf("状态应为已归还")
		}
		if !returned.IsOverdue(time.Now()) {
			t.Errorf("逾期归还的记录应判定逾期")
		}
	})

	t.Run("待审批记录不能归还", func(t *testing.T) {
		b, _ := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 1, "")

		if _, err := env.svc.ConfirmReturn(ctx, testStaffID, b.ID); !apperrors.Is(err, ErrInvalidTransition) {
			t.Errorf("待审批记录归还应返回ErrInvalidTransition, 实际 %v", err)
		}
	})
}

// TestTransition_RetryAfterConflict 条件更新输掉竞争后重试成功
// 模拟：第一次UpdateStatus返回ErrStatusConflict（其他写入方抢先），
// 重读后记录仍是PENDING，重试应成功
func TestTransition_RetryAfterConflict(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	b, _ := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 1, "")
	env.borrowRepo.conflictOnce = true

	approved, err := env.svc.ApproveBorrow(ctx, testStaffID, b.ID)
	if err != nil {
		t.Fatalf("冲突重试后审批应成功: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("状态应为已借出")
	}
}

// =========================================
// 过期巡检
// =========================================

func TestSweepExpired(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	now := time.Now()

	// 过期申请：49小时前创建
	expired, _ := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 1, "")
	env.borrowRepo.setCreatedAt(expired.ID, now.Add(-49*time.Hour))

	// 未过期申请：1小时前创建
	fresh, _ := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 1, "")
	env.borrowRepo.setCreatedAt(fresh.ID, now.Add(-time.Hour))

	swept, err := env.svc.SweepExpired(ctx, now)
	if err != nil {
		t.Fatalf("巡检失败: %v", err)
	}
	if swept != 1 {
		t.Errorf("应恰好处理1条过期申请, 实际 %d", swept)
	}

	// 过期申请被系统拒绝，使用固定文案
	got, _ := env.svc.GetBorrowByID(ctx, expired.ID)
	if got.Status != StatusRejected {
		t.Errorf("过期申请应被自动拒绝, 实际状态 %v", got.Status)
	}
	if got.Note != SystemRejectNote {
		t.Errorf("系统拒绝应使用固定备注, 实际 %q", got.Note)
	}
	if got.ApprovedStaffID != nil {
		t.Errorf("系统拒绝不应记录经办馆员")
	}

	// 未过期申请不受影响
	got, _ = env.svc.GetBorrowByID(ctx, fresh.ID)
	if got.Status != StatusPending {
		t.Errorf("未过期申请不应被处理, 实际状态 %v", got.Status)
	}

	// 额度释放：3册馆藏，剩1条在借
	available, _ := env.svc.AvailableQuantity(ctx, testBookID)
	if available != 2 {
		t.Errorf("自动拒绝后额度应释放, 可借数量应为2, 实际 %d", available)
	}

	// 幂等：再跑一次没有新处理
	swept, err = env.svc.SweepExpired(ctx, now)
	if err != nil {
		t.Fatalf("二次巡检失败: %v", err)
	}
	if swept != 0 {
		t.Errorf("重复巡检不应有新处理, 实际 %d", swept)
	}
}

// TestSweepExpired_LostRace 巡检输给并发写入方时跳过该条
func TestSweepExpired_LostRace(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	now := time.Now()

	b, _ := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 1, "")
	env.borrowRepo.setCreatedAt(b.ID, now.Add(-50*time.Hour))

	// 注入一次条件更新冲突：模拟读者在巡检扫描后、写入前取消了申请
	env.borrowRepo.conflictOnce = true

	swept, err := env.svc.SweepExpired(ctx, now)
	if err != nil {
		t.Fatalf("巡检失败: %v", err)
	}
	if swept != 0 {
		t.Errorf("输掉竞争的记录应被跳过, 实际处理 %d 条", swept)
	}
}

// =========================================
// 列表查询
// =========================================

func TestListBorrows_WithStats(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	b1, _ := env.svc.CreateBorrow(ctx, testReaderID, testBookID, 1, "")
	env.svc.ApproveBorrow(ctx, testStaffID, b1.ID)
	env.svc.CreateBorrow(ctx, testReaderID, testBookID, 1, "")

	list, total, stats, err := env.svc.ListBorrows(ctx, ListParams{ReaderID: testReaderID, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Errorf("应返回2条记录, 实际 total=%d len=%d", total, len(list))
	}
	if stats.Pending != 1 || stats.Approved != 1 {
		t.Errorf("统计不符: pending=%d approved=%d", stats.Pending, stats.Approved)
	}
	if stats.Overdue != 0 {
		t.Errorf("借期内不应有逾期, 实际 %d", stats.Overdue)
	}
}
