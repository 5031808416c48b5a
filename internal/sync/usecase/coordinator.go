package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	authdomain "fiwb-backend/internal/auth/domain"
	authrepo "fiwb-backend/internal/auth/repository"
	"fiwb-backend/internal/sync/domain"
	"fiwb-backend/internal/sync/repository"
	"fiwb-backend/pkg/governor"
)

const (
	// Phase 1 must answer fast enough for an interactive trigger.
	listingTimeout = 20 * time.Second
	// Instructor names are cosmetic; never let them hold up content.
	instructorTimeout = 5 * time.Second
	// Pause between courses in a deep sync to spread remote load.
	interCourseDelay = 300 * time.Millisecond
)

// courseTask pairs an active course with the adapter that owns it.
type courseTask struct {
	adapter domain.Adapter
	info    domain.CourseInfo
}

// Coordinator runs the two-phase sync. Phase 1 reconciles the course list
// per platform and returns; Phase 2 continues detached, fetching content
// course by course under a deep-sync slot.
type Coordinator struct {
	adapters     []domain.Adapter
	courseRepo   repository.CourseRepository
	materialRepo repository.MaterialRepository
	userRepo     authrepo.UserRepository
	governor     *governor.Governor
	queue        DocumentQueue

	courseDelay time.Duration
}

func NewCoordinator(
	adapters []domain.Adapter,
	courseRepo repository.CourseRepository,
	materialRepo repository.MaterialRepository,
	userRepo authrepo.UserRepository,
	gov *governor.Governor,
	queue DocumentQueue,
) *Coordinator {
	return &Coordinator{
		adapters:     adapters,
		courseRepo:   courseRepo,
		materialRepo: materialRepo,
		userRepo:     userRepo,
		governor:     gov,
		queue:        queue,
		courseDelay:  interCourseDelay,
	}
}

// SyncUser reconciles enrollment for every platform, then hands the active
// courses to a detached deep sync. The caller gets control back as soon as
// the course list is settled.
func (c *Coordinator) SyncUser(ctx context.Context, user *authdomain.User) error {
	log.Printf("[Sync] Starting sync for %s", user.Email)

	var tasks []courseTask
	failed := 0
	for _, adapter := range c.adapters {
		platformTasks, ok := c.reconcilePlatform(ctx, user, adapter)
		if !ok {
			failed++
			continue
		}
		tasks = append(tasks, platformTasks...)
	}

	// A sync where no platform answered is a failure, not an empty result;
	// leaving the watermark alone lets the safety net retry it.
	if failed == len(c.adapters) {
		return fmt.Errorf("all platform listings failed for %s", user.Email)
	}

	if len(tasks) == 0 {
		log.Printf("[Sync] No active courses for %s", user.Email)
		if err := c.userRepo.TouchLastSynced(user.ID); err != nil {
			log.Printf("[Sync] last_synced update failed for %s: %v", user.ID, err)
		}
		return nil
	}

	go c.deepSync(user, tasks)
	return nil
}

// reconcilePlatform runs Phase 1 for one adapter: list the remote active
// scope, upsert and link what is there, unlink what is not. An empty remote
// answer prunes nothing; it cannot be told apart from a partial outage.
// The second return reports whether the listing itself succeeded.
func (c *Coordinator) reconcilePlatform(ctx context.Context, user *authdomain.User, adapter domain.Adapter) ([]courseTask, bool) {
	lctx, cancel := context.WithTimeout(ctx, listingTimeout)
	defer cancel()

	infos, err := adapter.ListActive(lctx, user)
	if err != nil {
		log.Printf("[Sync] %s listing failed for %s: %v", adapter.Platform(), user.Email, err)
		return nil, false
	}
	if len(infos) == 0 {
		return nil, true
	}

	active := make(map[string]bool, len(infos))
	var tasks []courseTask
	for _, info := range infos {
		active[info.ID] = true
		if _, err := c.courseRepo.Upsert(info); err != nil {
			log.Printf("[Sync] Course upsert failed for %s: %v", info.ID, err)
			continue
		}
		if err := c.courseRepo.LinkUser(user.ID, info.ID); err != nil {
			log.Printf("[Sync] Enrollment link failed for %s/%s: %v", user.ID, info.ID, err)
			continue
		}
		tasks = append(tasks, courseTask{adapter: adapter, info: info})
	}

	linked, err := c.courseRepo.ListUserCoursesByPlatform(user.ID, adapter.Platform())
	if err != nil {
		log.Printf("[Sync] Enrollment listing failed for %s: %v", user.ID, err)
		return tasks, true
	}
	for _, course := range linked {
		if !active[course.ID] {
			log.Printf("[Sync] Unlinking %s from dropped course %s", user.Email, course.ID)
			if err := c.courseRepo.UnlinkUser(user.ID, course.ID); err != nil {
				log.Printf("[Sync] Unlink failed for %s/%s: %v", user.ID, course.ID, err)
			}
		}
	}

	return tasks, true
}

// deepSync is Phase 2. It holds a deep-sync slot for its whole run and
// processes courses one at a time; a failed course skips to the next.
func (c *Coordinator) deepSync(user *authdomain.User, tasks []courseTask) {
	ctx := context.Background()

	release, err := c.governor.AcquireUser(ctx)
	if err != nil {
		log.Printf("[Sync] Deep-sync slot acquisition failed for %s: %v", user.Email, err)
		return
	}
	defer release()

	for i, task := range tasks {
		if i > 0 && c.courseDelay > 0 {
			time.Sleep(c.courseDelay)
		}
		c.syncCourse(ctx, user, task)
	}

	if err := c.userRepo.TouchLastSynced(user.ID); err != nil {
		log.Printf("[Sync] last_synced update failed for %s: %v", user.ID, err)
	}
	log.Printf("[Sync] Deep sync finished for %s (%d courses)", user.Email, len(tasks))
}

func (c *Coordinator) syncCourse(ctx context.Context, user *authdomain.User, task courseTask) {
	seen, err := c.materialRepo.ExistingIDs(task.info.ID)
	if err != nil {
		log.Printf("[Sync] Dedup lookup failed for %s: %v", task.info.ID, err)
		return
	}

	// Rows written before per-user ownership carry no user id; adopt them.
	if rows, err := c.materialRepo.ListByCourse(task.info.ID, user.ID); err == nil {
		for _, row := range rows {
			if row.UserID == nil {
				if err := c.materialRepo.ClaimOwnership(row.ID, user.ID); err != nil {
					log.Printf("[Sync] Ownership claim failed for %s: %v", row.ID, err)
				}
			}
		}
	}

	items, err := task.adapter.FetchCourseContent(ctx, user, task.info, seen)
	if err != nil {
		log.Printf("[Sync] Content fetch failed for %s: %v", task.info.ID, err)
		return
	}

	var fresh []domain.NewItem
	for _, item := range items {
		if item.Material == nil || seen.Has(item.Material.ID) {
			continue
		}
		seen.Add(item.Material.ID)
		fresh = append(fresh, item)
	}

	if len(fresh) > 0 {
		materials := make([]*domain.Material, 0, len(fresh))
		for _, item := range fresh {
			materials = append(materials, item.Material)
		}
		if err := c.materialRepo.BulkCreate(materials); err != nil {
			log.Printf("[Sync] Bulk insert failed for %s: %v", task.info.ID, err)
			return
		}
		log.Printf("[Sync] Stored %d new materials for %s", len(materials), task.info.ID)

		// Only stored rows are mirrored; a deduped item never reaches the index.
		for _, item := range fresh {
			if item.Document != nil {
				c.queue.QueueDocument(user.ID, item.Document)
			}
		}
	}

	c.resolveInstructor(ctx, user, task)
}

// resolveInstructor fills in the professor name once, best-effort.
func (c *Coordinator) resolveInstructor(ctx context.Context, user *authdomain.User, task courseTask) {
	course, err := c.courseRepo.FindByID(task.info.ID)
	if err != nil || course == nil {
		return
	}
	if course.Professor != "" && course.Professor != "Loading..." {
		return
	}

	ictx, cancel := context.WithTimeout(ctx, instructorTimeout)
	defer cancel()

	name, err := task.adapter.FetchInstructor(ictx, user, task.info.ID)
	if err != nil || name == "" {
		return
	}
	if err := c.courseRepo.SetProfessor(task.info.ID, name); err != nil {
		log.Printf("[Sync] Professor update failed for %s: %v", task.info.ID, err)
	}
}
