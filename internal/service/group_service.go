package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
)

var errNameRequired = errors.New("name is required")

// GroupService implements the Connect GroupService.
type GroupService struct {
	store  storage.Store
	ledger *Ledger
	logger *slog.Logger
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, ledger *Ledger, logger *slog.Logger) *GroupService {
	return &GroupService{store: store, ledger: ledger, logger: logger}
}

// CreateGroup creates a group. The caller is always its first member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errNameRequired)
	}

	members := []string{userID}
	for _, id := range req.Msg.MemberIDs {
		if id != "" && !slices.Contains(members, id) {
			members = append(members, id)
		}
	}

	users, err := s.store.GetUsersByIDs(ctx, members)
	if err != nil {
		return nil, storeError(err, "failed to load members")
	}
	for _, id := range members {
		if _, ok := users[id]; !ok {
			return nil, invalidArgument("unknown member %q", id)
		}
	}

	group := &models.Group{Name: name, Members: members}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		s.logger.Error("CreateGroup failed", "error", err)
		return nil, storeError(err, "failed to create group")
	}

	s.logger.Info("Group created", "group_id", group.ID, "user_id", userID, "members", len(members))
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group, users)}), nil
}

// GetGroup returns a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	users, err := s.store.GetUsersByIDs(ctx, group.Members)
	if err != nil {
		return nil, storeError(err, "failed to load members")
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group, users)}), nil
}

// ListGroups returns every group the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsByMember(ctx, userID)
	if err != nil {
		s.logger.Error("ListGroups failed", "user_id", userID, "error", err)
		return nil, storeError(err, "failed to list groups")
	}

	var ids []string
	for _, g := range groups {
		ids = append(ids, g.Members...)
	}
	slices.Sort(ids)
	users, err := s.store.GetUsersByIDs(ctx, slices.Compact(ids))
	if err != nil {
		return nil, storeError(err, "failed to load members")
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g, users)
	}
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// AddMember adds a registered user, found by email, to a group. Adding an
// existing member is a no-op.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	email := auth.NormalizeEmail(req.Msg.Email)
	if email == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errEmailRequired)
	}
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, storeError(err, "failed to look up user")
	}

	if !group.HasMember(user.ID) {
		if err := s.store.AddGroupMembers(ctx, group.ID, []string{user.ID}); err != nil {
			s.logger.Error("AddMember failed", "group_id", group.ID, "error", err)
			return nil, storeError(err, "failed to add member")
		}
		group.Members = append(group.Members, user.ID)
		s.logger.Info("Member added", "group_id", group.ID, "member_id", user.ID, "user_id", userID)
	}

	users, err := s.store.GetUsersByIDs(ctx, group.Members)
	if err != nil {
		return nil, storeError(err, "failed to load members")
	}
	return connect.NewResponse(&api.AddMemberResponse{Group: toAPIGroup(group, users)}), nil
}

// DeleteGroup removes a group with all of its expenses and settlements.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteGroup(ctx, group.ID); err != nil {
		s.logger.Error("DeleteGroup failed", "group_id", group.ID, "error", err)
		return nil, storeError(err, "failed to delete group")
	}
	s.ledger.Invalidate(ctx, group.ID)

	s.logger.Info("Group deleted", "group_id", group.ID, "user_id", userID)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// GetGroupBalances returns every member's paid, owed and net totals, sorted
// by member ID, together with the transfers that would settle them.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	records, transfers, err := s.ledger.Settle(ctx, group.ID)
	if err != nil {
		return nil, storeError(err, "failed to compute settlement")
	}

	return connect.NewResponse(&api.GetGroupBalancesResponse{
		Balances:  memberBalances(group, calculator.CalculateBalances(records)),
		Transfers: toAPITransfers(transfers),
	}), nil
}

// memberBalances reports a zero balance for members with no activity.
func memberBalances(group *models.Group, balances []calculator.MemberBalance) []*api.MemberBalance {
	out := make([]*api.MemberBalance, 0, len(group.Members))
	seen := make(map[string]bool, len(balances))
	for _, b := range balances {
		seen[string(b.Member)] = true
		out = append(out, &api.MemberBalance{
			UserID:     string(b.Member),
			TotalPaid:  b.Paid,
			TotalOwed:  b.Owed,
			NetBalance: b.Net,
		})
	}
	for _, id := range group.Members {
		if !seen[id] {
			out = append(out, &api.MemberBalance{
				UserID:     id,
				TotalPaid:  decimal.Zero,
				TotalOwed:  decimal.Zero,
				NetBalance: decimal.Zero,
			})
		}
	}
	slices.SortFunc(out, func(a, b *api.MemberBalance) int {
		return strings.Compare(a.UserID, b.UserID)
	})
	return out
}
